package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the name of the working-directory config file.
const ConfigFileName = "tarcycle.toml"

// GlobalConfigDir is the directory under the user config dir.
const GlobalConfigDir = "tarcycle"

// Load loads configuration from all layers in order of precedence:
//  1. Built-in defaults
//  2. Global user config (~/.config/tarcycle/config.toml)
//  3. Working-directory config (tarcycle.toml)
//  4. Environment variables (TARCYCLE_*)
//
// CLI flags are applied separately after Load() returns.
func Load() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return LoadFrom(wd)
}

// LoadFrom loads configuration with the working-directory layer read
// from the given directory.
func LoadFrom(dir string) *Config {
	cfg := NewConfig()

	if globalCfg := loadConfigFile(GetGlobalConfigPath()); globalCfg != nil {
		cfg.Merge(globalCfg)
	}
	if localCfg := loadConfigFile(filepath.Join(dir, ConfigFileName)); localCfg != nil {
		cfg.Merge(localCfg)
	}
	applyEnvironmentVariables(cfg)

	return cfg
}

// loadConfigFile loads a configuration from a TOML file.
// A missing or malformed file yields no layer.
func loadConfigFile(path string) *Config {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil
	}
	return &cfg
}

// applyEnvironmentVariables applies TARCYCLE_* variables to the config.
func applyEnvironmentVariables(cfg *Config) {
	applyIntEnv("TARCYCLE_MAX_INCREMENTS", &cfg.Backup.MaxIncrements)
	applyIntEnv("TARCYCLE_MAX_SNAPSHOTS", &cfg.Backup.MaxSnapshots)
	applyIntEnv("TARCYCLE_WATCH_DEBOUNCE_MS", &cfg.Watch.DebounceMS)

	// Comma-separated lists
	if v := os.Getenv("TARCYCLE_EXCLUDES"); v != "" {
		cfg.Backup.Excludes = splitAndTrim(v)
	}
	if v := os.Getenv("TARCYCLE_ARCHIVER"); v != "" {
		cfg.Archiver.Candidates = splitAndTrim(v)
	}
	if v := os.Getenv("TARCYCLE_WATCH_IGNORE"); v != "" {
		cfg.Watch.Ignore = splitAndTrim(v)
	}
}

// applyIntEnv applies an integer environment variable to a pointer.
func applyIntEnv(envVar string, target **int) {
	v := os.Getenv(envVar)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return
	}
	*target = &n
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}
