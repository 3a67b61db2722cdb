// Package config loads the optional per-dataset project file and
// environment-file parameters. Precedence is decided by the CLI: flags
// beat parameters, parameters beat prism.yaml, prism.yaml beats the
// dataset's own declaration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers check for it with errors.Is and fall back to defaults.
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is the project file looked up at the dataset root.
const ConfigFileName = "prism.yaml"

// ProjectConfig is the prism.yaml shape.
type ProjectConfig struct {
	// SchemaVersion pins the schema version for this dataset, overriding
	// the dataset_description.json declaration.
	SchemaVersion string `yaml:"schema_version,omitempty"`

	// SchemaDir overlays rule definitions from a directory on top of the
	// builtin set.
	SchemaDir string `yaml:"schema_dir,omitempty"`

	// Ignore adds doublestar patterns to the scan exclusions.
	Ignore []string `yaml:"ignore,omitempty"`

	// Workers bounds parallel per-file evaluation.
	Workers int `yaml:"workers,omitempty"`
}

// Load reads prism.yaml from the dataset root.
func Load(datasetPath string) (*ProjectConfig, error) {
	configPath := filepath.Join(datasetPath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}
	return &cfg, nil
}

// Parameter keys recognized in env files.
const (
	ParamSchemaVersion = "PRISM_SCHEMA_VERSION"
	ParamSchemaDir     = "PRISM_SCHEMA_DIR"
	ParamWorkers       = "PRISM_WORKERS"
)

// LoadParams reads a .env-style parameter file.
func LoadParams(path string) (map[string]string, error) {
	params, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading params file %s: %w", path, err)
	}
	return params, nil
}

// Apply overlays recognized parameters onto the config in place.
// Unrecognized keys are left for the caller; they are not an error here.
func (c *ProjectConfig) Apply(params map[string]string) error {
	if v, ok := params[ParamSchemaVersion]; ok && v != "" {
		c.SchemaVersion = v
	}
	if v, ok := params[ParamSchemaDir]; ok && v != "" {
		c.SchemaDir = v
	}
	if v, ok := params[ParamWorkers]; ok && v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", ParamWorkers, v)
		}
		c.Workers = workers
	}
	return nil
}
