package commands

import (
	"fmt"
	"strings"

	"github.com/DeprecatedLuar/sqldevcfg/internal/search"
	"github.com/DeprecatedLuar/sqldevcfg/internal/storage"
	"github.com/DeprecatedLuar/sqldevcfg/internal/ui"
)

// HandleFind searches connection names, folders, users and host URLs across
// every installation and prints numbered results for use with view, edit, rm
// and mv.
func HandleFind(rt *Runtime, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("usage: sqldevcfg find <query>")
	}

	insts, err := rt.loadInstallations()
	if err != nil {
		return err
	}

	var sources []search.Source
	for _, inst := range insts {
		if inst.Registry == nil {
			continue
		}
		sources = append(sources, search.Source{
			ConnectionsPath: inst.ConnectionsPath,
			Records:         inst.Registry.Records(),
		})
	}

	results := search.Search(sources, query)
	if len(results) == 0 {
		fmt.Fprintf(rt.stdout(), "No results found for: %s\n", query)
		return nil
	}

	multi := len(sources) > 1
	hostWidth := ui.GetTerminalWidth() / 2
	cached := make([]storage.CachedResult, len(results))
	for i, r := range results {
		host := ui.TruncateString(r.Record.Host(), hostWidth)
		line := ui.FormatConnection(i+1, r.Record.Name(), r.Record.Folder(), r.Record.User(), host)
		if multi {
			line += " " + ui.Path.Sprint(r.ConnectionsPath)
		}
		fmt.Fprintln(rt.stdout(), line)
		rt.Log.Debugf("%s scored %d", r.Record.Name(), r.Score)

		cached[i] = storage.CachedResult{ConnectionsPath: r.ConnectionsPath, Name: r.Record.Name()}
	}

	// Cache results for numbered access
	rt.cacheListing(cached)
	return nil
}
