/*
Package cli implements the recall command-line interface.

Each command is a thin cobra wrapper around a run function that takes
its dependencies (store, config, paths, output writer) explicitly, so
the behavior is testable without touching the real ~/.recall directory.
*/
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmvu/recall/internal/config"
	"github.com/dmvu/recall/internal/storage"
)

// paths collects every file location under the data directory.
type paths struct {
	dataDir       string
	dbPath        string
	configPath    string
	artifactsDir  string
	indexPath     string
	modifications string
	proposals     string
}

// defaultPaths resolves the standard ~/.recall layout.
func defaultPaths() (paths, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return paths{}, err
	}
	return pathsIn(dataDir), nil
}

// pathsIn lays out the data files under an explicit directory.
func pathsIn(dataDir string) paths {
	return paths{
		dataDir:       dataDir,
		dbPath:        filepath.Join(dataDir, "recall.db"),
		configPath:    filepath.Join(dataDir, "config.json"),
		artifactsDir:  filepath.Join(dataDir, "artifacts"),
		indexPath:     filepath.Join(dataDir, "index", "context-index.jsonl"),
		modifications: filepath.Join(dataDir, "template-modifications.jsonl"),
		proposals:     filepath.Join(dataDir, "evolved", "evolution-proposals.json"),
	}
}

// openStore initializes the store at the standard location.
//
// A store that fails to open comes back disabled rather than aborting
// the command; read commands then see empty data and write commands
// report the failure at the point of use.
func openStore(p paths) *storage.SQLiteStore {
	store := storage.NewStoreAt(p.dbPath)
	if err := store.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: storage unavailable: %v\n", err)
	}
	return store
}

// deriveProject labels events with the working directory's base name.
func deriveProject() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Base(cwd)
}
