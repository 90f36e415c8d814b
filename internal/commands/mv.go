package commands

import (
	"fmt"

	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
	"github.com/DeprecatedLuar/sqldevcfg/internal/ui"
)

// HandleMove files a connection under another folder. An empty folder takes
// it out of every folder.
func HandleMove(rt *Runtime, args []string, dryRun bool) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: sqldevcfg mv <name|n> <folder>")
	}

	insts, err := rt.loadInstallations()
	if err != nil {
		return err
	}

	targets, err := resolveTargets(insts, args[0])
	if err != nil {
		return err
	}

	folder := args[1]
	var touched []*connections.Registry
	for _, t := range targets {
		old := t.record.Folder()
		if old == folder {
			rt.Log.Infof("%q is already in %q in %s", t.record.Name(), folder, t.inst.ConnectionsPath)
			continue
		}
		t.record.SetFolder(folder)
		touched = append(touched, t.inst.Registry)
		fmt.Fprintf(rt.stdout(), "✓ %s: %s → %s\n", t.record.Name(), folderLabel(old), folderLabel(folder))
	}

	return rt.commitAll(touched, "mv", dryRun)
}

func folderLabel(folder string) string {
	if folder == "" {
		return ui.Muted.Sprint("no folder")
	}
	return ui.Folder.Sprint(folder)
}
