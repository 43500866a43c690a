package config

import (
	"os"
	"path/filepath"
)

// DataDirEnv overrides the local data directory used by the embedded
// user store.
const DataDirEnv = "GENOME_EXPLORER_DATA_DIR"

// DefaultDataDir returns the directory holding local state such as the
// SQLite user store.
func DefaultDataDir() string {
	if v := os.Getenv(DataDirEnv); v != "" {
		return v
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".genome-explorer"
	}
	return filepath.Join(homeDir, ".genome-explorer")
}

// DefaultSQLitePath returns the path to the default SQLite user store.
func DefaultSQLitePath() string {
	return filepath.Join(DefaultDataDir(), "users.db")
}

// EnsureDataDir creates the parent directory of a SQLite database path.
func EnsureDataDir(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), 0755)
}
