package app

import (
	"os"
	"path/filepath"
)

// DefaultHome is the craftflow home directory relative to the working
// directory.
const DefaultHome = ".craftflow"

// Paths resolves the well-known locations under the craftflow home.
type Paths struct {
	Home     string // base directory (.craftflow)
	Setting  string // setting.json
	Pipeline string // pipeline.yaml
	Var      string // var directory for runtime state
	Sessions string // per-session checkpoint directory
	Journal  string // NDJSON journal
	DB       string // sqlite database
}

// GetPaths resolves paths from CRAFTFLOW_HOME or the default home.
func GetPaths() Paths {
	home := os.Getenv("CRAFTFLOW_HOME")
	if home == "" {
		home = DefaultHome
	}
	return PathsIn(home)
}

// PathsIn resolves the path layout rooted at the given home directory.
func PathsIn(home string) Paths {
	varDir := filepath.Join(home, "var")
	return Paths{
		Home:     home,
		Setting:  filepath.Join(home, "setting.json"),
		Pipeline: filepath.Join(home, "pipeline.yaml"),
		Var:      varDir,
		Sessions: filepath.Join(varDir, "sessions"),
		Journal:  filepath.Join(varDir, "journal.ndjson"),
		DB:       filepath.Join(varDir, "craftflow.db"),
	}
}
