package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.MaxIncrements() != DefaultMaxIncrements {
		t.Errorf("MaxIncrements() = %d, want %d", cfg.MaxIncrements(), DefaultMaxIncrements)
	}
	if cfg.MaxSnapshots() != DefaultMaxSnapshots {
		t.Errorf("MaxSnapshots() = %d, want %d", cfg.MaxSnapshots(), DefaultMaxSnapshots)
	}
	if cfg.DebounceMS() != DefaultDebounceMS {
		t.Errorf("DebounceMS() = %d, want %d", cfg.DebounceMS(), DefaultDebounceMS)
	}
	if len(cfg.Watch.Ignore) == 0 {
		t.Error("default watch ignore patterns should not be empty")
	}
}

func TestMerge(t *testing.T) {
	cfg := NewConfig()

	ten := 10
	unlimited := -1
	other := &Config{
		Backup: BackupConfig{
			MaxIncrements: &ten,
			MaxSnapshots:  &unlimited,
			Excludes:      []string{"*.tmp"},
		},
		Archiver: ArchiverConfig{
			Candidates: []string{"/opt/gnu/bin/tar"},
		},
	}
	cfg.Merge(other)

	if cfg.MaxIncrements() != 10 {
		t.Errorf("MaxIncrements() = %d, want 10", cfg.MaxIncrements())
	}
	if cfg.MaxSnapshots() != -1 {
		t.Errorf("MaxSnapshots() = %d, want -1", cfg.MaxSnapshots())
	}
	if len(cfg.Backup.Excludes) != 1 || cfg.Backup.Excludes[0] != "*.tmp" {
		t.Errorf("Excludes = %v", cfg.Backup.Excludes)
	}
	if len(cfg.Archiver.Candidates) != 1 {
		t.Errorf("Candidates = %v", cfg.Archiver.Candidates)
	}
	// Unset fields keep their defaults.
	if cfg.DebounceMS() != DefaultDebounceMS {
		t.Errorf("DebounceMS() = %d, want default", cfg.DebounceMS())
	}
}

func TestMerge_NilIsNoop(t *testing.T) {
	cfg := NewConfig()
	cfg.Merge(nil)
	if cfg.MaxIncrements() != DefaultMaxIncrements {
		t.Error("Merge(nil) changed defaults")
	}
}

func TestLoadFrom_WorkingDirectoryConfig(t *testing.T) {
	dir := t.TempDir()
	content := `
[backup]
max_increments = 7
max_snapshots = 0
excludes = ["*.log", "cache/**"]

[watch]
debounce_ms = 250
`
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadFrom(dir)
	if cfg.MaxIncrements() != 7 {
		t.Errorf("MaxIncrements() = %d, want 7", cfg.MaxIncrements())
	}
	if cfg.MaxSnapshots() != 0 {
		t.Errorf("MaxSnapshots() = %d, want 0", cfg.MaxSnapshots())
	}
	if len(cfg.Backup.Excludes) != 2 {
		t.Errorf("Excludes = %v, want 2 entries", cfg.Backup.Excludes)
	}
	if cfg.DebounceMS() != 250 {
		t.Errorf("DebounceMS() = %d, want 250", cfg.DebounceMS())
	}
}

func TestLoadFrom_MalformedFileIgnored(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{not toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadFrom(dir)
	if cfg.MaxIncrements() != DefaultMaxIncrements {
		t.Error("malformed config should fall back to defaults")
	}
}

func TestEnvironmentVariables(t *testing.T) {
	t.Setenv("TARCYCLE_MAX_INCREMENTS", "-1")
	t.Setenv("TARCYCLE_MAX_SNAPSHOTS", "9")
	t.Setenv("TARCYCLE_EXCLUDES", "*.iso, *.img")
	t.Setenv("TARCYCLE_ARCHIVER", "gtar")

	cfg := LoadFrom(t.TempDir())
	if cfg.MaxIncrements() != -1 {
		t.Errorf("MaxIncrements() = %d, want -1", cfg.MaxIncrements())
	}
	if cfg.MaxSnapshots() != 9 {
		t.Errorf("MaxSnapshots() = %d, want 9", cfg.MaxSnapshots())
	}
	if len(cfg.Backup.Excludes) != 2 || cfg.Backup.Excludes[1] != "*.img" {
		t.Errorf("Excludes = %v", cfg.Backup.Excludes)
	}
	if len(cfg.Archiver.Candidates) != 1 || cfg.Archiver.Candidates[0] != "gtar" {
		t.Errorf("Candidates = %v", cfg.Archiver.Candidates)
	}
}

func TestEnvironmentVariables_InvalidIntIgnored(t *testing.T) {
	t.Setenv("TARCYCLE_MAX_INCREMENTS", "lots")

	cfg := LoadFrom(t.TempDir())
	if cfg.MaxIncrements() != DefaultMaxIncrements {
		t.Errorf("MaxIncrements() = %d, want default for garbage env", cfg.MaxIncrements())
	}
}
