package commands

import (
	"fmt"

	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
	"github.com/DeprecatedLuar/sqldevcfg/internal/ui"
)

// HandleView prints one connection with its password decrypted, once per
// installation that has it.
func HandleView(rt *Runtime, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: sqldevcfg view <name|n>")
	}

	insts, err := rt.loadInstallations()
	if err != nil {
		return err
	}

	targets, err := resolveTargets(insts, args[0])
	if err != nil {
		return err
	}

	for i, t := range targets {
		data, err := t.record.Data()
		if err != nil {
			return err
		}

		if i > 0 {
			fmt.Fprintln(rt.stdout())
		}
		rec := t.record
		fmt.Fprintln(rt.stdout(), ui.FormatConnection(0, rec.Name(), rec.Folder(), rec.User(), rec.Host()))
		fmt.Fprintln(rt.stdout(), ui.Path.Sprint(t.inst.ConnectionsPath))
		fmt.Fprintln(rt.stdout())

		for _, attr := range data {
			if attr.Key == connections.KeyPassword {
				continue
			}
			fmt.Fprintf(rt.stdout(), "%s: %s\n", ui.Key.Sprint(attr.Key), attr.Value)
		}
	}
	return nil
}
