package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/spf13/viper"
)

const EnvPrefix = "CANVAS_SNAP"

type Logger struct {
	Level  string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"`
}

type Server struct {
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"required|int|min:1|max:65535"`
}

type Autosave struct {
	// Interval of zero disables autosave.
	Interval time.Duration `mapstructure:"interval"`
}

type Cache struct {
	Enabled bool          `mapstructure:"enabled"`
	SizeMB  int           `mapstructure:"sizeMB" validate:"int|min:0"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type Metrics struct {
	Enabled bool `mapstructure:"enabled"`
}

type Export struct {
	Dir      string `mapstructure:"dir" validate:"required"`
	Compress bool   `mapstructure:"compress"`
}

type Config struct {
	Path     string   `mapstructure:"-"`
	Document string   `mapstructure:"document"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Autosave Autosave `mapstructure:"autosave"`
	Cache    Cache    `mapstructure:"cache"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Export   Export   `mapstructure:"export"`
}

func Default() Config {
	return Config{
		Logger:   Logger{Level: "info"},
		Server:   Server{Host: "127.0.0.1", Port: 8765},
		Autosave: Autosave{Interval: 0},
		Cache:    Cache{Enabled: true, SizeMB: 8, TTL: 10 * time.Minute},
		Metrics:  Metrics{Enabled: true},
		Export:   Export{Dir: "."},
	}
}

// Addr is the listen address of the HTTP API.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DefaultPath is $XDG_CONFIG_HOME/canvas-snap/config.yaml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "canvas-snap", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "canvas-snap.yaml")
	}
	return filepath.Join(home, ".config", "canvas-snap", "config.yaml")
}

// Load reads the YAML file at path on top of the defaults and applies
// CANVAS_SNAP_* environment overrides, e.g. CANVAS_SNAP_SERVER_PORT. A missing
// file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !missing(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("document", d.Document)
	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.pretty", d.Logger.Pretty)
	v.SetDefault("logger.file", d.Logger.File)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("autosave.interval", d.Autosave.Interval)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.sizeMB", d.Cache.SizeMB)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("export.compress", d.Export.Compress)
}

func missing(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}

// Validate checks field rules, then the durations the rule set cannot express.
func (c *Config) Validate() error {
	v := validate.Struct(c)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %s", v.Errors.One())
	}
	if c.Autosave.Interval < 0 {
		return fmt.Errorf("invalid config: autosave interval %s is negative", c.Autosave.Interval)
	}
	if c.Autosave.Interval > 0 && c.Autosave.Interval < time.Second {
		return fmt.Errorf("invalid config: autosave interval %s is below 1s", c.Autosave.Interval)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("invalid config: cache ttl %s is negative", c.Cache.TTL)
	}
	return nil
}
