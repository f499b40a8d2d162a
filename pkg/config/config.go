// Package config provides configuration management for tarcycle.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/tarcycle/config.toml)
//  3. Working-directory config (tarcycle.toml)
//  4. Environment variables (TARCYCLE_*)
//  5. CLI flags (highest priority)
package config

// Config is the main configuration struct for tarcycle.
type Config struct {
	// Backup configures chain and retention limits.
	Backup BackupConfig `toml:"backup"`

	// Archiver configures external tool discovery.
	Archiver ArchiverConfig `toml:"archiver"`

	// Watch configures watch mode.
	Watch WatchConfig `toml:"watch"`
}

// BackupConfig holds chain bookkeeping settings.
type BackupConfig struct {
	// MaxIncrements is the maximum chain length before a new full
	// snapshot is forced. 0 forces a full archive every run; negative
	// means unlimited increments.
	MaxIncrements *int `toml:"max_increments"`

	// MaxSnapshots is the number of previous chains retained when a new
	// chain starts. 0 keeps only the new chain; negative disables
	// pruning entirely.
	MaxSnapshots *int `toml:"max_snapshots"`

	// Excludes are patterns passed to the archive tool.
	Excludes []string `toml:"excludes"`
}

// ArchiverConfig holds external tool discovery settings.
type ArchiverConfig struct {
	// Candidates overrides the probed executable names/locations.
	Candidates []string `toml:"candidates"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	// DebounceMS is the event coalescing window in milliseconds.
	DebounceMS *int `toml:"debounce_ms"`

	// Ignore are doublestar patterns for paths that never trigger a
	// backup (editor droppings, caches).
	Ignore []string `toml:"ignore"`
}

// Defaults mirrored by the CLI flag defaults.
const (
	DefaultMaxIncrements = 5
	DefaultMaxSnapshots  = 3
	DefaultDebounceMS    = 2000
)

// DefaultIgnore are the watch patterns excluded out of the box.
var DefaultIgnore = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

// NewConfig creates a Config with built-in defaults.
func NewConfig() *Config {
	maxIncrements := DefaultMaxIncrements
	maxSnapshots := DefaultMaxSnapshots
	debounce := DefaultDebounceMS
	return &Config{
		Backup: BackupConfig{
			MaxIncrements: &maxIncrements,
			MaxSnapshots:  &maxSnapshots,
		},
		Watch: WatchConfig{
			DebounceMS: &debounce,
			Ignore:     append([]string(nil), DefaultIgnore...),
		},
	}
}

// MaxIncrements returns the effective increment budget.
func (c *Config) MaxIncrements() int {
	if c.Backup.MaxIncrements == nil {
		return DefaultMaxIncrements
	}
	return *c.Backup.MaxIncrements
}

// MaxSnapshots returns the effective retained chain count.
func (c *Config) MaxSnapshots() int {
	if c.Backup.MaxSnapshots == nil {
		return DefaultMaxSnapshots
	}
	return *c.Backup.MaxSnapshots
}

// DebounceMS returns the effective watch debounce window.
func (c *Config) DebounceMS() int {
	if c.Watch.DebounceMS == nil {
		return DefaultDebounceMS
	}
	return *c.Watch.DebounceMS
}

// Merge merges another config into this one (other takes precedence).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Backup.MaxIncrements != nil {
		c.Backup.MaxIncrements = other.Backup.MaxIncrements
	}
	if other.Backup.MaxSnapshots != nil {
		c.Backup.MaxSnapshots = other.Backup.MaxSnapshots
	}
	if len(other.Backup.Excludes) > 0 {
		c.Backup.Excludes = append(c.Backup.Excludes, other.Backup.Excludes...)
	}

	if len(other.Archiver.Candidates) > 0 {
		c.Archiver.Candidates = other.Archiver.Candidates
	}

	if other.Watch.DebounceMS != nil {
		c.Watch.DebounceMS = other.Watch.DebounceMS
	}
	if len(other.Watch.Ignore) > 0 {
		c.Watch.Ignore = append(c.Watch.Ignore, other.Watch.Ignore...)
	}
}
