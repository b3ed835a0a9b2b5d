package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads the admin settings file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader. An empty path means "no file": Load returns an
// empty document and the env defaults apply alone.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the settings file, expanding ${VAR} references from
// the environment first.
func (l *Loader) Load() (File, error) {
	if l.filePath == "" {
		return File{}, nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &f); err != nil {
		return File{}, fmt.Errorf("failed to parse settings yaml: %w", err)
	}
	return f, nil
}

// Path returns the file being loaded, empty when none is configured.
func (l *Loader) Path() string { return l.filePath }
