// Package config loads and validates estante settings. Values arrive
// from the config file, ESTANTE_* environment variables and command
// flags, merged by viper in ascending precedence, and are checked
// before anything expensive starts.
package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	// Token is a previously acquired bearer credential. When set, the
	// interactive login flow is skipped.
	Token string `mapstructure:"token" yaml:"token"`

	// UserID is the shelf owner's account identifier, numeric or
	// 24-char hex. Discovered during login or from the first API page
	// when empty.
	UserID string `mapstructure:"user_id" yaml:"user_id"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogJSON  bool   `mapstructure:"log_json" yaml:"log_json"`
	Quiet    bool   `mapstructure:"quiet" yaml:"quiet"`

	Harvest HarvestConfig `mapstructure:"harvest" yaml:"harvest"`
	Details DetailsConfig `mapstructure:"details" yaml:"details"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
}

// HarvestConfig bounds the shelf walk.
type HarvestConfig struct {
	Filter   string        `mapstructure:"filter" yaml:"filter" validate:"required"`
	PageSize int           `mapstructure:"page_size" yaml:"page_size" validate:"gte=1,lte=100"`
	MaxPages int           `mapstructure:"max_pages" yaml:"max_pages" validate:"min=1"`
	Delay    time.Duration `mapstructure:"delay" yaml:"delay" validate:"min=0"`
}

// DetailsConfig controls per-book page enrichment.
type DetailsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Workers int  `mapstructure:"workers" yaml:"workers" validate:"gte=1,lte=50"`
}

// ExportConfig selects the output encoding and destination.
type ExportConfig struct {
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=csv json yaml"`
	// Output is the destination path. Empty means a timestamped file
	// in the working directory.
	Output string `mapstructure:"output" yaml:"output"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Harvest: HarvestConfig{
			Filter:   "read",
			PageSize: 30,
			MaxPages: 100,
			Delay:    500 * time.Millisecond,
		},
		Details: DetailsConfig{
			Enabled: true,
			Workers: 15,
		},
		Export: ExportConfig{
			Format: "csv",
		},
	}
}

// Load unmarshals the viper state over the defaults and validates the
// result.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, describe(e))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

var validate = newValidator()

// newValidator reports violations under the user-facing config keys
// rather than Go field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

func describe(e validator.FieldError) string {
	key := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", key, e.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", key, e.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", key, e.Param())
	case "required":
		return fmt.Sprintf("%s must not be empty", key)
	default:
		return fmt.Sprintf("%s fails %s", key, e.Tag())
	}
}
