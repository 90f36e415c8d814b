// Package commands implements the sqldevcfg subcommands on top of the
// connections, preferences and discovery packages.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/DeprecatedLuar/sqldevcfg/internal/commands/parser"
	"github.com/DeprecatedLuar/sqldevcfg/internal/config"
	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
	"github.com/DeprecatedLuar/sqldevcfg/internal/discovery"
	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
	"github.com/DeprecatedLuar/sqldevcfg/internal/logging"
	"github.com/DeprecatedLuar/sqldevcfg/internal/presentation"
	"github.com/DeprecatedLuar/sqldevcfg/internal/selfheal"
	"github.com/DeprecatedLuar/sqldevcfg/internal/storage"
	"github.com/DeprecatedLuar/sqldevcfg/internal/ui"
)

// Unchanged lines kept around each change in --dry-run output
const diffContext = 3

// Runtime carries the resolved configuration and I/O for one invocation.
// Out receives results; Err receives human notes such as diffs.
type Runtime struct {
	Config     *config.Config
	Log        logging.Logger
	Discoverer discovery.Discoverer
	Prompter   *ui.Prompter
	Out        io.Writer
	Err        io.Writer
}

func (rt *Runtime) stdout() io.Writer {
	if rt.Out == nil {
		return os.Stdout
	}
	return rt.Out
}

func (rt *Runtime) stderr() io.Writer {
	if rt.Err == nil {
		return os.Stderr
	}
	return rt.Err
}

func (rt *Runtime) prompter() *ui.Prompter {
	if rt.Prompter == nil {
		rt.Prompter = &ui.Prompter{}
	}
	return rt.Prompter
}

// output writes a structured result in the configured format.
func (rt *Runtime) output(result any) error {
	return presentation.NewFormatter(rt.stdout(), rt.Config.Format).FormatResult(result)
}

// installation is a discovered installation with its registry, or the
// reason it could not be opened.
type installation struct {
	discovery.Installation
	Registry *connections.Registry
}

// loadInstallations discovers and opens every installation. One that cannot
// be opened is returned with Err set so the caller can report it and go on.
func (rt *Runtime) loadInstallations() ([]installation, error) {
	stop := ui.StartSpinner("Reading SQL Developer installations...")
	found, err := rt.Discoverer.Installations()
	if err != nil {
		stop()
		return nil, err
	}

	loaded := make([]installation, 0, len(found))
	for _, inst := range found {
		rt.Log.Debugf("installation %s, preferences %s", inst.ConnectionsPath, inst.PreferencesPath)
		li := installation{Installation: inst}
		if li.Err == nil {
			for _, f := range selfheal.Run(inst.ConnectionsPath, inst.PreferencesPath) {
				rt.Log.Debugf("removed leftover %s", f)
			}
			li.Registry, li.Err = connections.Open(inst.ConnectionsPath, inst.PreferencesPath)
		}
		loaded = append(loaded, li)
	}
	stop()

	for _, li := range loaded {
		if li.Err != nil {
			rt.Log.Warnf("skipping %s: %v", li.ConnectionsPath, li.Err)
		}
	}
	return loaded, nil
}

// installationError wraps a per-installation failure with its path.
func installationError(path string, err error) error {
	return fmt.Errorf("%s: %w", path, err)
}

// errorString returns err's message, or "" for nil.
func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// commit writes a modified registry, backing both files up first when
// enabled. With dryRun it prints what would change instead.
func (rt *Runtime) commit(reg *connections.Registry, reason string, dryRun bool) error {
	if dryRun {
		return rt.showDiff(reg)
	}

	if rt.Config.Backup {
		manifest, err := storage.Backup(reason, reg.Path(), reg.Preferences().Path())
		if err != nil {
			return fmt.Errorf("failed to back up before writing: %w", err)
		}
		rt.Log.Debugf("backup of %s stored in %s", reg.Path(), manifest.Dir)
	}

	if err := reg.Save(reg.Path()); err != nil {
		return err
	}
	rt.Log.Infof("saved %s", reg.Path())
	return nil
}

// showDiff renders the registry and prints a line diff against the files on disk.
func (rt *Runtime) showDiff(reg *connections.Registry) error {
	connectionsXML, preferencesXML, err := reg.Render()
	if err != nil {
		return err
	}

	files := []storage.PendingWrite{
		{Path: reg.Path(), Data: connectionsXML},
		{Path: reg.Preferences().Path(), Data: preferencesXML},
	}
	for _, f := range files {
		current, err := storage.ReadFileIfExists(f.Path)
		if err != nil {
			return err
		}
		lines := storage.DiffLines(string(current), string(f.Data))
		if !storage.HasChanges(lines) {
			rt.Log.Infof("%s unchanged", f.Path)
			continue
		}
		fmt.Fprintln(rt.stderr(), ui.Path.Sprint(f.Path))
		fmt.Fprint(rt.stderr(), ui.FormatDiff(storage.TrimContext(lines, diffContext)))
	}
	return nil
}

// target is one connection in one opened installation.
type target struct {
	inst   *installation
	record *connections.Record
}

// resolveTargets finds the connections an argument refers to. A number picks
// an entry of the last list or find output; anything else is a connection
// name looked up in every installation.
func resolveTargets(insts []installation, arg string) ([]target, error) {
	if n, ok := parser.ParseIndex(arg); ok {
		cached, err := storage.GetCachedResult(n)
		if err != nil {
			return nil, fmt.Errorf("arg %q: %w", arg, err)
		}
		for i := range insts {
			inst := &insts[i]
			if inst.Registry == nil || inst.ConnectionsPath != cached.ConnectionsPath {
				continue
			}
			if rec, ok := inst.Registry.Get(cached.Name); ok {
				return []target{{inst: inst, record: rec}}, nil
			}
		}
		return nil, fmt.Errorf("%w: %q in %s", errors.ErrConnectionNotFound, cached.Name, cached.ConnectionsPath)
	}

	var targets []target
	for i := range insts {
		inst := &insts[i]
		if inst.Registry == nil {
			continue
		}
		if rec, ok := inst.Registry.Get(arg); ok {
			targets = append(targets, target{inst: inst, record: rec})
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %q", errors.ErrConnectionNotFound, arg)
	}
	return targets, nil
}

// cacheListing remembers the numbering of a listing for later "n" arguments.
func (rt *Runtime) cacheListing(results []storage.CachedResult) {
	if err := storage.CacheResults(results); err != nil {
		rt.Log.Debugf("failed to cache results: %v", err)
	}
}
