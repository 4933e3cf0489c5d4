// ABOUTME: Resolves the faculty match data directory and the files inside it
// ABOUTME: Honors FACMATCH_DATA_DIR, then XDG_DATA_HOME, then the xdg default
package storage

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/harper/facultymatch/internal/storage/sqlite"
)

const (
	// AppDirName is the directory created under the XDG data home.
	AppDirName = "facultymatch"
	// IndexFileName holds the embedding index document.
	IndexFileName = "faculty_embeddings.json"
)

// DefaultDataDir returns the directory holding the index and database.
func DefaultDataDir() string {
	if dir := os.Getenv("FACMATCH_DATA_DIR"); dir != "" {
		return dir
	}
	// Read XDG_DATA_HOME directly so tests can override it after xdg initializes.
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, AppDirName)
}

// IndexPath returns the index document path inside dataDir.
func IndexPath(dataDir string) string {
	return filepath.Join(dataDir, IndexFileName)
}

// DBPath returns the SQLite database path inside dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, sqlite.DBFileName)
}
