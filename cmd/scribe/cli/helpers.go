package cli

import (
	"os"

	"github.com/scribehub/scribe/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from the --data-dir flag, the
// SCRIBE_DATA_DIR env var, or ~/.scribe as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("SCRIBE_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.scribe"
}

// openStore opens the SQLite key/log store in the resolved data directory.
func openStore() (*store.Store, error) {
	return store.New(resolveDataDir())
}
