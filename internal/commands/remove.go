package commands

import (
	"fmt"

	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
	"github.com/DeprecatedLuar/sqldevcfg/internal/ui"
)

// HandleRemove deletes connections by name or by number from the last
// listing. Every argument is resolved before anything is written.
func HandleRemove(rt *Runtime, args []string, dryRun bool) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sqldevcfg rm <name|n> [<name|n>...]")
	}

	insts, err := rt.loadInstallations()
	if err != nil {
		return err
	}

	var targets []target
	for _, arg := range args {
		found, err := resolveTargets(insts, arg)
		if err != nil {
			return err
		}
		targets = append(targets, found...)
	}

	var touched []*connections.Registry
	seen := make(map[*connections.Registry]bool)
	for _, t := range targets {
		reg := t.inst.Registry
		if !reg.Remove(t.record.Name()) {
			continue
		}
		fmt.Fprintln(rt.stdout(), "- "+ui.FormatConnection(0, t.record.Name(), t.record.Folder(), t.record.User(), t.record.Host()))
		if !seen[reg] {
			seen[reg] = true
			touched = append(touched, reg)
		}
	}

	return rt.commitAll(touched, "rm", dryRun)
}

// commitAll commits each registry, continuing past failures.
func (rt *Runtime) commitAll(regs []*connections.Registry, reason string, dryRun bool) error {
	var errs []error
	for _, reg := range regs {
		if err := rt.commit(reg, reason, dryRun); err != nil {
			rt.Log.Errorf("%s: %v", reg.Path(), err)
			errs = append(errs, installationError(reg.Path(), err))
		}
	}
	return errors.Join(errs...)
}
