package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the name of the config file looked up next to the input.
const ConfigFile = "ffigen.yaml"

// FileConfig is the content of a config file. Unset fields keep the flag
// defaults.
type FileConfig struct {
	Backend   string   `yaml:"backend"`
	Lang      string   `yaml:"lang"`
	Compiler  string   `yaml:"compiler"`
	ExtraArgs []string `yaml:"extra_args"`
	Package   string   `yaml:"package"`
	Format    *bool    `yaml:"format"`
}

// LoadConfig reads and parses a config file. Unknown keys are rejected.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg FileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// findConfig returns the config file next to input, or "" if there is
// none.
func findConfig(input string) (string, error) {
	path := filepath.Join(filepath.Dir(input), ConfigFile)
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return path, nil
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	default:
		return "", err
	}
}
