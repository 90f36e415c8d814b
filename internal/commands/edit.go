package commands

import (
	"fmt"
	"slices"

	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
	"github.com/DeprecatedLuar/sqldevcfg/internal/editor"
	"github.com/DeprecatedLuar/sqldevcfg/internal/ui"
)

// HandleEdit opens a connection's attributes as TOML in the editor and writes
// the result back to every installation that has the connection. Changing
// ConnName renames it in place.
func HandleEdit(rt *Runtime, args []string, dryRun bool) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: sqldevcfg edit <name|n>")
	}

	insts, err := rt.loadInstallations()
	if err != nil {
		return err
	}

	targets, err := resolveTargets(insts, args[0])
	if err != nil {
		return err
	}

	data, err := targets[0].record.Data()
	if err != nil {
		return err
	}

	edited, err := editor.OpenForRecord(rt.Config.Editor, data)
	if err != nil {
		return fmt.Errorf("failed to edit connection: %w", err)
	}
	if slices.Equal(edited, data) {
		fmt.Fprintln(rt.stdout(), "No changes")
		return nil
	}

	var touched []*connections.Registry
	for _, t := range targets {
		updated, err := t.record.WithData(edited)
		if err != nil {
			return err
		}
		if err := t.inst.Registry.Replace(t.record.Name(), updated); err != nil {
			return err
		}
		touched = append(touched, t.inst.Registry)
		fmt.Fprintln(rt.stdout(), "✓ "+ui.FormatConnection(0, updated.Name(), updated.Folder(), updated.User(), updated.Host()))
	}

	return rt.commitAll(touched, "edit", dryRun)
}
