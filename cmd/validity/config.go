package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/pborges/validity"
	"github.com/spf13/viper"
)

// Config holds the runtime configuration of the CLI.
// Values are populated from .validity.yaml, VALIDITY_* env vars, and flags.
type Config struct {
	DB         string   `mapstructure:"db"`
	Entity     string   `mapstructure:"entity"`
	StartField string   `mapstructure:"start_field"`
	EndField   string   `mapstructure:"end_field"`
	CopyFields []string `mapstructure:"copy_fields"`
	OmitFields []string `mapstructure:"omit_fields"`
	LogLevel   string   `mapstructure:"log_level"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("db", "validity.db")
	viper.SetDefault("entity", "")
	viper.SetDefault("start_field", validity.DefaultStartField)
	viper.SetDefault("end_field", validity.DefaultEndField)
	viper.SetDefault("copy_fields", []string{})
	viper.SetDefault("omit_fields", []string{"id"})
	viper.SetDefault("log_level", "warn")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	if err := cfg.Fields().Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) Fields() validity.Fields {
	return validity.Fields{Start: c.StartField, End: c.EndField}
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Logger builds the text logger the CLI writes to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (c Config) Set(logger *slog.Logger) (*validity.Set, error) {
	return validity.New(
		validity.WithFields(c.Fields()),
		validity.WithCopyFields(c.CopyFields...),
		validity.WithOmitFields(c.OmitFields...),
		validity.WithLogger(logger),
	)
}
