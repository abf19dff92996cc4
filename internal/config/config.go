// Package config provides loading and validation of the data-syncd settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/data-sync/internal/facts"
	"github.com/stacklok/data-sync/internal/rules"
	"github.com/stacklok/data-sync/internal/telemetry"
	"github.com/stacklok/data-sync/internal/transfer"
)

const (
	// EnvPrefix is the prefix of environment variables read by data-syncd
	EnvPrefix = "DATA_SYNC"

	// DefaultStateDir holds the lock file and the last run record
	DefaultStateDir = "/var/lib/data-sync"

	// DefaultListenAddress is where the control surface listens
	DefaultListenAddress = ":8080"

	// DefaultFactsFile is written by the platform's redundancy manager
	DefaultFactsFile = "/run/data-sync/redundancy.yaml"
)

const (
	// RedundancySourceFile reads redundancy facts from a YAML file
	RedundancySourceFile = "file"

	// RedundancySourceStatic takes redundancy facts from the settings file
	RedundancySourceStatic = "static"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// RulesDir is the directory of rule documents
	RulesDir string `yaml:"rulesDir,omitempty"`

	// StateDir holds the lock file and the last run record
	StateDir string `yaml:"stateDir,omitempty"`

	// ListenAddress is the address of the HTTP control surface
	ListenAddress string `yaml:"listenAddress,omitempty"`

	// Transfer selects and tunes the transfer backend
	Transfer TransferConfig `yaml:"transfer,omitempty"`

	// Redundancy selects where redundancy facts come from
	Redundancy RedundancyConfig `yaml:"redundancy,omitempty"`

	// Telemetry configures OpenTelemetry metrics and tracing
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// TransferConfig configures how a rule's path is copied
type TransferConfig struct {
	// Mode is rsync or native, rsync by default
	Mode string `yaml:"mode,omitempty"`

	// RsyncPath is the rsync binary
	RsyncPath string `yaml:"rsyncPath,omitempty"`

	// ExtraArgs are appended to the default rsync arguments
	ExtraArgs []string `yaml:"extraArgs,omitempty"`

	// Remote prefixes destinations with the sibling target
	Remote bool `yaml:"remote,omitempty"`

	// MaxParallel bounds concurrent transfers of a full sync, 0 is unbounded
	MaxParallel int `yaml:"maxParallel,omitempty"`
}

// RedundancyConfig configures the redundancy fact source
type RedundancyConfig struct {
	// Source is file or static, file by default
	Source string `yaml:"source,omitempty"`

	// FactsFile is read when Source is file
	FactsFile string `yaml:"factsFile,omitempty"`

	// Static holds the facts when Source is static
	Static *StaticFactsConfig `yaml:"static,omitempty"`

	// FetchTimeout bounds the startup fetch including retries
	FetchTimeout string `yaml:"fetchTimeout,omitempty"`
}

// StaticFactsConfig holds fixed redundancy facts
type StaticFactsConfig struct {
	Role           string `yaml:"role"`
	Enabled        bool   `yaml:"enabled"`
	SiblingAddress string `yaml:"siblingAddress,omitempty"`
	SiblingUser    string `yaml:"siblingUser,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file. Without a
// path the defaults are returned.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	var config Config
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetRulesDir returns the rules directory, defaulting to rules.DefaultDir
func (c *Config) GetRulesDir() string {
	if c.RulesDir == "" {
		return rules.DefaultDir
	}
	return c.RulesDir
}

// GetStateDir returns the state directory
func (c *Config) GetStateDir() string {
	if c.StateDir == "" {
		return DefaultStateDir
	}
	return c.StateDir
}

// GetListenAddress returns the control surface address
func (c *Config) GetListenAddress() string {
	if c.ListenAddress == "" {
		return DefaultListenAddress
	}
	return c.ListenAddress
}

// GetMode returns the transfer mode
func (t *TransferConfig) GetMode() transfer.Mode {
	if t.Mode == "" {
		return transfer.ModeRsync
	}
	return transfer.Mode(t.Mode)
}

// GetRsyncPath returns the rsync binary
func (t *TransferConfig) GetRsyncPath() string {
	if t.RsyncPath == "" {
		return transfer.DefaultRsyncPath
	}
	return t.RsyncPath
}

// GetSource returns the redundancy fact source
func (r *RedundancyConfig) GetSource() string {
	if r.Source == "" {
		return RedundancySourceFile
	}
	return r.Source
}

// GetFactsFile returns the facts file path
func (r *RedundancyConfig) GetFactsFile() string {
	if r.FactsFile == "" {
		return DefaultFactsFile
	}
	return r.FactsFile
}

// GetFetchTimeout returns how long the startup fetch may take
func (r *RedundancyConfig) GetFetchTimeout() time.Duration {
	if r.FetchTimeout == "" {
		return facts.DefaultFetchTimeout
	}
	// validated on load
	d, err := time.ParseDuration(r.FetchTimeout)
	if err != nil {
		return facts.DefaultFetchTimeout
	}
	return d
}

// StaticFacts converts the static block into a redundancy snapshot
func (s *StaticFactsConfig) StaticFacts() facts.RedundancyContext {
	if s == nil {
		return facts.RedundancyContext{Role: facts.RoleUnknown}
	}
	return facts.RedundancyContext{
		Role:              facts.ParseRole(s.Role),
		RedundancyEnabled: s.Enabled,
		SiblingAddress:    s.SiblingAddress,
		SiblingUser:       s.SiblingUser,
	}
}

// Validate checks the configuration and reports every problem found
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error
	errs = append(errs, c.Transfer.validate())
	errs = append(errs, c.Redundancy.validate())
	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("telemetry: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (t *TransferConfig) validate() error {
	var errs []error
	switch t.GetMode() {
	case transfer.ModeRsync:
	case transfer.ModeNative:
		if t.Remote {
			errs = append(errs, fmt.Errorf("transfer.remote requires mode %q", transfer.ModeRsync))
		}
		if len(t.ExtraArgs) > 0 {
			errs = append(errs, fmt.Errorf("transfer.extraArgs requires mode %q", transfer.ModeRsync))
		}
	default:
		errs = append(errs, fmt.Errorf("transfer.mode must be %q or %q, got %q",
			transfer.ModeRsync, transfer.ModeNative, t.Mode))
	}
	for i, arg := range t.ExtraArgs {
		if arg == "" {
			errs = append(errs, fmt.Errorf("transfer.extraArgs[%d]: must not be empty", i))
		}
	}
	if t.MaxParallel < 0 {
		errs = append(errs, fmt.Errorf("transfer.maxParallel must not be negative, got %d", t.MaxParallel))
	}
	return errors.Join(errs...)
}

func (r *RedundancyConfig) validate() error {
	var errs []error
	switch r.GetSource() {
	case RedundancySourceFile:
	case RedundancySourceStatic:
		if r.Static == nil {
			errs = append(errs, fmt.Errorf("redundancy.static is required for source %q", RedundancySourceStatic))
		} else if role := facts.Role(r.Static.Role); role != facts.RoleActive && role != facts.RolePassive &&
			role != facts.RoleUnknown {
			errs = append(errs, fmt.Errorf("redundancy.static.role must be %s, %s or %s, got %q",
				facts.RoleActive, facts.RolePassive, facts.RoleUnknown, r.Static.Role))
		}
	default:
		errs = append(errs, fmt.Errorf("redundancy.source must be %q or %q, got %q",
			RedundancySourceFile, RedundancySourceStatic, r.Source))
	}
	if r.FetchTimeout != "" {
		d, err := time.ParseDuration(r.FetchTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("redundancy.fetchTimeout must be a valid duration (e.g., '30s'): %w", err))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("redundancy.fetchTimeout must be positive, got %s", r.FetchTimeout))
		}
	}
	return errors.Join(errs...)
}
