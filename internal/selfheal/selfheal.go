package selfheal

import (
	"os"
	"time"

	"github.com/DeprecatedLuar/sqldevcfg/internal/storage"
)

// staleAfter leaves room for a commit that is still in flight.
const staleAfter = time.Minute

// Run removes staging files that an interrupted write left next to the given
// connections and preferences files. It returns what it removed.
func Run(paths ...string) []string {
	var removed []string
	for _, path := range paths {
		if path == "" {
			continue
		}
		stale, err := storage.StaleStagingFiles(path, staleAfter)
		if err != nil {
			continue
		}
		for _, f := range stale {
			if err := os.Remove(f); err == nil {
				removed = append(removed, f)
			}
		}
	}
	return removed
}
