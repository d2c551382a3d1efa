// Package config loads runtime configuration for a scheduling run.
// Values come from .ll.yaml, LL_* environment variables, and CLI flags,
// in ascending precedence.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Unverified-marker policies (what to do when a result carries no
// VALIDATED_FILE marker).
const (
	// UnverifiedAccept accepts the result but flags it as unverified.
	UnverifiedAccept = "accept"
	// UnverifiedReject treats a missing marker as a validation failure.
	UnverifiedReject = "reject"
)

// Directory-seed policies (what to do when a declared seed path is a
// directory rather than a regular file).
const (
	// DirSeedSkip skips the directory with a warning.
	DirSeedSkip = "skip"
	// DirSeedCopy copies the directory recursively.
	DirSeedCopy = "copy"
)

// Config holds all machine-level settings for a run. Project-level
// settings (prefix, directories, seed paths, runner command) live in
// loops.toml.
type Config struct {
	WorkDir          string `mapstructure:"work_dir"`
	MaxWorkers       int    `mapstructure:"max_workers"`
	SandboxRetries   int    `mapstructure:"sandbox_retries"`
	WorktreeDir      string `mapstructure:"worktree_dir"`
	UnverifiedPolicy string `mapstructure:"unverified_policy"`
	DirSeedPolicy    string `mapstructure:"dir_seed_policy"`
	RunnerTimeoutSec int    `mapstructure:"runner_timeout_seconds"`
	Verbose          bool   `mapstructure:"verbose"`
}

// RunnerTimeout returns the per-issue external step timeout.
// Zero disables the timeout.
func (c Config) RunnerTimeout() time.Duration {
	return time.Duration(c.RunnerTimeoutSec) * time.Second
}

// Load reads configuration from viper, applying built-in defaults for
// any values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("work_dir", ".")
	viper.SetDefault("max_workers", 4)
	viper.SetDefault("sandbox_retries", 3)
	viper.SetDefault("worktree_dir", ".ll-worktrees")
	viper.SetDefault("unverified_policy", UnverifiedAccept)
	viper.SetDefault("dir_seed_policy", DirSeedSkip)
	viper.SetDefault("runner_timeout_seconds", 0)
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}

// Validate checks enumerated fields and numeric bounds.
func (c Config) Validate() error {
	switch c.UnverifiedPolicy {
	case UnverifiedAccept, UnverifiedReject:
	default:
		return fmt.Errorf("unverified_policy must be %q or %q, got %q",
			UnverifiedAccept, UnverifiedReject, c.UnverifiedPolicy)
	}
	switch c.DirSeedPolicy {
	case DirSeedSkip, DirSeedCopy:
	default:
		return fmt.Errorf("dir_seed_policy must be %q or %q, got %q",
			DirSeedSkip, DirSeedCopy, c.DirSeedPolicy)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be at least 1, got %d", c.MaxWorkers)
	}
	if c.SandboxRetries < 0 {
		return fmt.Errorf("sandbox_retries must not be negative, got %d", c.SandboxRetries)
	}
	return nil
}
