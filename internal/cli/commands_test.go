package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prism-data/prism/pkg/prism"
)

func TestValidateCmd_ArgsValidation(t *testing.T) {
	err := validateCmd.Args(validateCmd, []string{})
	if err == nil {
		t.Fatal("Expected error for missing args")
	}
	exitCode := prism.ExitCodeForError(err)
	if exitCode != prism.ExitUsageError {
		t.Errorf("Expected exit code %d (usage), got %d for: %v", prism.ExitUsageError, exitCode, err)
	}
}

func TestValidateCmd_ArgsValidation_TooMany(t *testing.T) {
	err := validateCmd.Args(validateCmd, []string{"a", "b"})
	if err == nil {
		t.Fatal("Expected error for too many args")
	}
	exitCode := prism.ExitCodeForError(err)
	if exitCode != prism.ExitUsageError {
		t.Errorf("Expected exit code %d (usage), got %d for: %v", prism.ExitUsageError, exitCode, err)
	}
}

func TestValidateCmd_NonexistentPath(t *testing.T) {
	validateFlags = validateFlagValues{}

	err := runValidate(validateCmd, []string{"/nonexistent/path/abc123"})
	if err == nil {
		t.Fatal("Expected error for nonexistent path")
	}
	exitCode := prism.ExitCodeForError(err)
	if exitCode != prism.ExitDatasetNotFound {
		t.Errorf("Expected exit code %d (dataset not found), got %d for: %v", prism.ExitDatasetNotFound, exitCode, err)
	}
}

func TestLibraryCheckCmd_ArgsValidation(t *testing.T) {
	err := libraryCheckCmd.Args(libraryCheckCmd, []string{})
	if err == nil {
		t.Fatal("Expected error for missing args")
	}
	exitCode := prism.ExitCodeForError(err)
	if exitCode != prism.ExitUsageError {
		t.Errorf("Expected exit code %d (usage), got %d for: %v", prism.ExitUsageError, exitCode, err)
	}
}

func TestLibraryGateCmd_ArgsValidation_TooMany(t *testing.T) {
	err := libraryGateCmd.Args(libraryGateCmd, []string{"a.json", "b.json"})
	if err == nil {
		t.Fatal("Expected error for too many args")
	}
}

func TestBuildRunConfig_LayersSources(t *testing.T) {
	validateFlags = validateFlagValues{}
	dataset := t.TempDir()

	projectYAML := "schema_version: \"1.0.0\"\nworkers: 2\nignore:\n  - derivatives/**\n"
	if err := os.WriteFile(filepath.Join(dataset, "prism.yaml"), []byte(projectYAML), 0644); err != nil {
		t.Fatal(err)
	}

	paramsFile := filepath.Join(t.TempDir(), "run.env")
	if err := os.WriteFile(paramsFile, []byte("PRISM_SCHEMA_VERSION=1.1.0\nPRISM_WORKERS=4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	validateFlags.paramsFiles = []string{paramsFile}

	cfg, err := buildRunConfig(dataset, false)
	if err != nil {
		t.Fatalf("buildRunConfig failed: %v", err)
	}
	if cfg.SchemaVersion != "1.1.0" {
		t.Errorf("Expected params file to override prism.yaml version, got %q", cfg.SchemaVersion)
	}
	if cfg.Workers != 4 {
		t.Errorf("Expected params file workers 4, got %d", cfg.Workers)
	}
	if len(cfg.IgnorePatterns) != 1 || cfg.IgnorePatterns[0] != "derivatives/**" {
		t.Errorf("Expected project ignore patterns, got %v", cfg.IgnorePatterns)
	}
}

func TestBuildRunConfig_FlagsOverrideAll(t *testing.T) {
	validateFlags = validateFlagValues{}
	dataset := t.TempDir()

	projectYAML := "schema_version: \"1.0.0\"\n"
	if err := os.WriteFile(filepath.Join(dataset, "prism.yaml"), []byte(projectYAML), 0644); err != nil {
		t.Fatal(err)
	}

	validateFlags.schemaVersion = "1.1.0"
	validateFlags.workers = 8
	validateFlags.ignore = []string{"scratch/**"}

	cfg, err := buildRunConfig(dataset, true)
	if err != nil {
		t.Fatalf("buildRunConfig failed: %v", err)
	}
	if cfg.SchemaVersion != "1.1.0" {
		t.Errorf("Expected flag to override project version, got %q", cfg.SchemaVersion)
	}
	if cfg.Workers != 8 {
		t.Errorf("Expected flag workers 8, got %d", cfg.Workers)
	}
	if len(cfg.IgnorePatterns) != 1 || cfg.IgnorePatterns[0] != "scratch/**" {
		t.Errorf("Expected flag ignore patterns, got %v", cfg.IgnorePatterns)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose to carry through")
	}
}

func TestBuildRunConfig_NoProjectConfig(t *testing.T) {
	validateFlags = validateFlagValues{}
	dataset := t.TempDir()

	cfg, err := buildRunConfig(dataset, false)
	if err != nil {
		t.Fatalf("buildRunConfig failed without prism.yaml: %v", err)
	}
	if cfg.SchemaVersion != "" {
		t.Errorf("Expected empty version without any source, got %q", cfg.SchemaVersion)
	}
}

func TestBuildRunConfig_BadParamsFile(t *testing.T) {
	validateFlags = validateFlagValues{}
	validateFlags.paramsFiles = []string{"/nonexistent/params.env"}

	_, err := buildRunConfig(t.TempDir(), false)
	if err == nil {
		t.Fatal("Expected error for missing params file")
	}
	exitCode := prism.ExitCodeForError(err)
	if exitCode != prism.ExitConfigError {
		t.Errorf("Expected exit code %d (config), got %d for: %v", prism.ExitConfigError, exitCode, err)
	}
}
