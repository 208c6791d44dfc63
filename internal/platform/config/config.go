package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	FileName  = "storefront.yaml"
	envPrefix = "STOREFRONT"

	VariantTopbar  = "topbar"
	VariantOverlay = "overlay"
)

type Config struct {
	DataDir    string           `mapstructure:"data_dir" yaml:"-"`
	DBPath     string           `mapstructure:"db_path" yaml:"db_path,omitempty"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Loading    LoadingConfig    `mapstructure:"loading" yaml:"loading"`
	Navigation NavigationConfig `mapstructure:"navigation" yaml:"navigation"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// LoadingConfig holds the coordinator defaults applied to every cycle.
type LoadingConfig struct {
	MinimumDisplayMs int    `mapstructure:"minimum_display_ms" yaml:"minimum_display_ms"`
	TimeoutMs        int    `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	Variant          string `mapstructure:"variant" yaml:"variant"`
}

type NavigationConfig struct {
	// SimulatedLatencyMs delays page loads in the in-memory router.
	SimulatedLatencyMs int `mapstructure:"simulated_latency_ms" yaml:"simulated_latency_ms"`
	// UnavailableRoutes fail their page load, leaving the navigation to the
	// loading timeout.
	UnavailableRoutes []string `mapstructure:"unavailable_routes" yaml:"unavailable_routes"`
}

func (c LoadingConfig) MinimumDisplay() time.Duration {
	return time.Duration(c.MinimumDisplayMs) * time.Millisecond
}

func (c LoadingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c NavigationConfig) SimulatedLatency() time.Duration {
	return time.Duration(c.SimulatedLatencyMs) * time.Millisecond
}

// Default returns the configuration used when no file or env overrides exist.
func Default(dataDir string) Config {
	return Config{
		DataDir: dataDir,
		DBPath:  filepath.Join(dataDir, "storefront.db"),
		Log:     LogConfig{Level: "info"},
		Loading: LoadingConfig{
			MinimumDisplayMs: 300,
			TimeoutMs:        10000,
			Variant:          VariantTopbar,
		},
		Navigation: NavigationConfig{
			SimulatedLatencyMs: 450,
			UnavailableRoutes:  []string{},
		},
	}
}

// New builds the default config rooted at dataDir.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	return Default(dataDir), nil
}

// Load reads {dataDir}/storefront.yaml when present and applies
// STOREFRONT_* environment overrides on top of the defaults.
func Load(dataDir string) (Config, error) {
	base, err := New(dataDir)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v, base)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(dataDir, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "storefront.db")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate clamps negative durations to zero and rejects unknown variants.
func (c *Config) Validate() error {
	if c.Loading.MinimumDisplayMs < 0 {
		c.Loading.MinimumDisplayMs = 0
	}
	if c.Loading.TimeoutMs < 0 {
		c.Loading.TimeoutMs = 0
	}
	if c.Navigation.SimulatedLatencyMs < 0 {
		c.Navigation.SimulatedLatencyMs = 0
	}
	switch c.Loading.Variant {
	case "":
		c.Loading.Variant = VariantTopbar
	case VariantTopbar, VariantOverlay:
	default:
		return fmt.Errorf("loading.variant must be %q or %q, got %q", VariantTopbar, VariantOverlay, c.Loading.Variant)
	}
	return nil
}

// WriteDefault writes the default configuration to {dataDir}/storefront.yaml.
// It refuses to overwrite an existing file unless force is set.
func WriteDefault(dataDir string, force bool) (string, error) {
	cfg, err := New(dataDir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dataDir, FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config %s already exists", path)
		}
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	cfg.DBPath = ""
	payload, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("db_path", "")
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("loading.minimum_display_ms", cfg.Loading.MinimumDisplayMs)
	v.SetDefault("loading.timeout_ms", cfg.Loading.TimeoutMs)
	v.SetDefault("loading.variant", cfg.Loading.Variant)
	v.SetDefault("navigation.simulated_latency_ms", cfg.Navigation.SimulatedLatencyMs)
	v.SetDefault("navigation.unavailable_routes", cfg.Navigation.UnavailableRoutes)
}
