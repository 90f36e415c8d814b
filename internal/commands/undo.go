package commands

import (
	"fmt"

	"github.com/DeprecatedLuar/sqldevcfg/internal/storage"
	"github.com/DeprecatedLuar/sqldevcfg/internal/ui"
)

// HandleUndo restores the files saved before the most recent write.
func HandleUndo(rt *Runtime, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: sqldevcfg undo")
	}

	manifest, err := storage.RestoreLatest()
	if err != nil {
		return fmt.Errorf("cannot undo: %w", err)
	}

	fmt.Fprintf(rt.stdout(), "Undid %s from %s\n", ui.Key.Sprint(manifest.Reason), manifest.Created.Format("2006-01-02 15:04:05"))
	for _, f := range manifest.Files {
		fmt.Fprintln(rt.stdout(), "  "+ui.Path.Sprint(f.Original))
	}
	return nil
}
