// Package config loads clothgen's YAML configuration, applies project
// overlays and environment overrides, and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Schema versions this build understands.
const (
	CurrentVersion     = "1.0.0"
	supportedVersions  = ">= 1.0.0, < 2.0.0"
	configFileName     = "config.yaml"
	defaultTickMillis  = 16
	defaultCacheTTLSec = 86400
	defaultLRUSize     = 512
)

// Environment variables that override file settings.
const (
	EnvHome       = "CLOTHGEN_HOME"
	EnvProjectDir = "CLOTHGEN_PROJECT_DIR"
	EnvLogLevel   = "CLOTHGEN_LOG_LEVEL"
	EnvLogFormat  = "CLOTHGEN_LOG_FORMAT"
	EnvWorkers    = "CLOTHGEN_WORKERS"
	EnvOutputDir  = "CLOTHGEN_OUTPUT_DIR"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full clothgen configuration.
type Config struct {
	Version   string          `yaml:"version"`
	Engine    EngineConfig    `yaml:"engine"`
	Generator GeneratorConfig `yaml:"generator"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	// path is the file this config was loaded from, if any.
	path string
}

// EngineConfig is the explicit value handed to the batch engine.
type EngineConfig struct {
	// Workers is the host parallelism. Zero means the CPU count.
	Workers int `yaml:"workers"`
	// MaxConcurrency caps a single run below the gate capacity when positive.
	MaxConcurrency int      `yaml:"max_concurrency"`
	Pattern        string   `yaml:"pattern"`
	TickInterval   string   `yaml:"tick_interval"`
	Timeout        string   `yaml:"timeout,omitempty"`
	ExcludeDirs    []string `yaml:"exclude_dirs,omitempty"`
}

// GeneratorConfig controls the generated asset bundles.
type GeneratorConfig struct {
	OutputDir      string `yaml:"output_dir"`
	ClothingType   string `yaml:"clothing_type"`
	Mesh           string `yaml:"mesh,omitempty"`
	EquipAnimation string `yaml:"equip_animation,omitempty"`
	UseAnimation   string `yaml:"use_animation,omitempty"`
}

// CacheConfig controls the texture inspection cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Directory  string `yaml:"directory,omitempty"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	LRUSize    int    `yaml:"lru_size"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Engine: EngineConfig{
			Pattern:      "*.png",
			TickInterval: (defaultTickMillis * time.Millisecond).String(),
		},
		Generator: GeneratorConfig{
			OutputDir:    "Assets",
			ClothingType: "shirt",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: defaultCacheTTLSec,
			LRUSize:    defaultLRUSize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// New returns the defaults overlaid with the global config file, if one
// exists, and then with environment overrides. A broken global file is
// ignored here. Use Load to surface its error.
func New() *Config {
	cfg := Default()
	if path, err := GlobalConfigPath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if mergeErr := ShallowMergeYAML(cfg, path); mergeErr == nil {
				cfg.path = path
			}
		}
	}
	cfg.fillDefaults()
	cfg.ApplyEnv()
	return cfg
}

// Load reads path over the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := ShallowMergeYAML(cfg, path); err != nil {
		return nil, err
	}
	cfg.path = path
	cfg.fillDefaults()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults restores zero fields left behind by a section replaced in
// a shallow merge.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Engine.Pattern == "" {
		c.Engine.Pattern = def.Engine.Pattern
	}
	if c.Engine.TickInterval == "" {
		c.Engine.TickInterval = def.Engine.TickInterval
	}
	if c.Generator.OutputDir == "" {
		c.Generator.OutputDir = def.Generator.OutputDir
	}
	if c.Generator.ClothingType == "" {
		c.Generator.ClothingType = def.Generator.ClothingType
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string { return c.path }

// ApplyEnv applies CLOTHGEN_* overrides.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Engine.Workers = n
		}
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Generator.OutputDir = v
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validateVersion(c.Version); err != nil {
		return err
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("%w: engine.workers must be >= 0, got %d", ErrInvalidConfig, c.Engine.Workers)
	}
	if c.Engine.MaxConcurrency < 0 {
		return fmt.Errorf("%w: engine.max_concurrency must be >= 0, got %d",
			ErrInvalidConfig, c.Engine.MaxConcurrency)
	}
	if _, err := filepath.Match(c.Engine.Pattern, ""); err != nil {
		return fmt.Errorf("%w: engine.pattern %q: %w", ErrInvalidConfig, c.Engine.Pattern, err)
	}
	if d, err := c.Engine.Tick(); err != nil || d <= 0 {
		return fmt.Errorf("%w: engine.tick_interval %q must be a positive duration",
			ErrInvalidConfig, c.Engine.TickInterval)
	}
	if _, err := c.Engine.RunTimeout(); err != nil {
		return fmt.Errorf("%w: engine.timeout %q: %w", ErrInvalidConfig, c.Engine.Timeout, err)
	}
	if c.Generator.OutputDir == "" {
		return fmt.Errorf("%w: generator.output_dir is required", ErrInvalidConfig)
	}
	if c.Cache.TTLSeconds < 0 || c.Cache.LRUSize < 0 {
		return fmt.Errorf("%w: cache.ttl_seconds and cache.lru_size must be >= 0", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q must be console or json", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

func validateVersion(v string) error {
	if v == "" {
		return nil
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: version %q: %w", ErrInvalidConfig, v, err)
	}
	constraint, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return err
	}
	if !constraint.Check(ver) {
		return fmt.Errorf("%w: version %s is not supported (want %s)", ErrInvalidConfig, v, supportedVersions)
	}
	return nil
}

// Tick parses TickInterval.
func (e EngineConfig) Tick() (time.Duration, error) {
	if e.TickInterval == "" {
		return defaultTickMillis * time.Millisecond, nil
	}
	return time.ParseDuration(e.TickInterval)
}

// RunTimeout parses Timeout. Zero means no deadline.
func (e EngineConfig) RunTimeout() (time.Duration, error) {
	if e.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(e.Timeout)
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	c.path = path
	return nil
}

// String renders the config as YAML.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(data)
}
