// Package config provides configuration loading and validation for the
// nspick tool. It handles reading configuration from files, providing
// defaults, and ensuring all required settings are properly set.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lc/nspick/internal/filesys"
	"github.com/lc/nspick/internal/resolvconf"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the configuration file is not found.
	ErrNoConfig = errors.New("configuration file not found")
)

// DefaultConfigPath is the default path for the configuration file,
// relative to the user's home directory.
const DefaultConfigPath = ".nspick/config.yaml"

// Config holds the tool configuration.
type Config struct {
	Resolver ResolverConfig `yaml:"resolver"`
}

// ResolverConfig names the resolver configuration files to read.
type ResolverConfig struct {
	// ConfPath is the primary resolv.conf-format file.
	ConfPath string `yaml:"conf_path"`
	// OverrideDir is the directory of per-domain override files.
	OverrideDir string `yaml:"override_dir"`
}

// Provider defines the interface for loading configuration.
type Provider interface {
	Load() (*Config, error)
}

// FSProvider implements Provider using the local filesystem.
type FSProvider struct {
	fs   filesys.ReadFS
	path string
}

var _ Provider = (*FSProvider)(nil)

// New creates a new configuration provider using the default configuration
// path under the user's home directory. If the home directory cannot be
// determined, the path resolves against the current directory.
func New() Provider {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not determine home directory: %v\n", err)
		home = ""
	}
	return NewWithPath(filesys.OS(), filepath.Join(home, DefaultConfigPath))
}

// NewWithPath creates a new provider with a specific config path.
// It allows specifying both the filesystem implementation and the path to use.
func NewWithPath(fs filesys.ReadFS, path string) Provider {
	return &FSProvider{
		fs:   fs,
		path: path,
	}
}

// Default returns a default configuration pointing at the conventional
// resolver paths. This is used when no configuration file exists.
func Default() *Config {
	return &Config{
		Resolver: ResolverConfig{
			ConfPath:    resolvconf.DefaultPath,
			OverrideDir: resolvconf.DefaultOverrideDir,
		},
	}
}

// Load loads the configuration from the specified path.
func (p *FSProvider) Load() (*Config, error) {
	cfg, err := p.loadAndParse()
	if err != nil {
		if errors.Is(err, ErrNoConfig) {
			return Default(), nil
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Validate checks the configuration to ensure all required fields are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Resolver.ConfPath) == "" && strings.TrimSpace(c.Resolver.OverrideDir) == "" {
		return errors.New("at least one of resolver conf_path and override_dir must be set")
	}
	return nil
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	return &cfg, nil
}
