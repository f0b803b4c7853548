// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BeagleMind Contributors

package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	bmerr "github.com/beagleboard/beaglemind/pkg/errors"
	"github.com/spf13/viper"
)

// FileName is the per-user state file, a flat JSON mapping in the home
// directory. It is created by `beaglemind init` and read on every chat.
const FileName = ".beaglemind_config.json"

// Defaults applied when init is run without explicit values.
const (
	DefaultBackend        = "groq"
	DefaultGroqModel      = "llama-3.3-70b-versatile"
	DefaultOllamaModel    = "llama3.2:3b"
	DefaultTemperature    = 0.3
	DefaultCollection     = "beaglemind_docs"
	DefaultVectorBackend  = "milvus"
	DefaultEmbeddingModel = "nomic-embed-text"
)

// Config is the persisted CLI state. API key values may be literal secrets,
// empty (resolved from the environment), or keyring:// URIs resolved through
// the secrets package.
type Config struct {
	CollectionName     string  `json:"collection_name" mapstructure:"collection_name"`
	DefaultBackend     string  `json:"default_backend" mapstructure:"default_backend"`
	DefaultModel       string  `json:"default_model" mapstructure:"default_model"`
	DefaultTemperature float64 `json:"default_temperature" mapstructure:"default_temperature"`
	Initialized        bool    `json:"initialized" mapstructure:"initialized"`

	VectorBackend  string `json:"vector_backend,omitempty" mapstructure:"vector_backend"`
	EmbeddingModel string `json:"embedding_model,omitempty" mapstructure:"embedding_model"`
	GroqAPIKey     string `json:"groq_api_key,omitempty" mapstructure:"groq_api_key"`
}

// DefaultPath returns ~/.beaglemind_config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", bmerr.Errorf(bmerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// New returns a Config populated with defaults, not yet initialized.
func New() *Config {
	return &Config{
		CollectionName:     DefaultCollection,
		DefaultBackend:     DefaultBackend,
		DefaultModel:       DefaultGroqModel,
		DefaultTemperature: DefaultTemperature,
		VectorBackend:      DefaultVectorBackend,
		EmbeddingModel:     DefaultEmbeddingModel,
	}
}

// Load reads the state file at path (or the default path when empty) with
// environment variable overrides (prefix BEAGLEMIND_). A missing file is not
// an error: the zero state (Initialized=false) is returned so callers can
// direct the user to `beaglemind init`.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("vector_backend", DefaultVectorBackend)
	v.SetDefault("embedding_model", DefaultEmbeddingModel)
	v.SetDefault("default_temperature", DefaultTemperature)

	v.SetEnvPrefix("BEAGLEMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Absent state file means "not initialized", not a failure.
		if errors.Is(err, fs.ErrNotExist) {
			return unmarshal(v)
		}
		return nil, bmerr.Errorf(bmerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
	}

	WarnInsecurePermissions(path)

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, bmerr.Errorf(bmerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, bmerr.Wrap(joinErrs(errs), bmerr.CodeConfigValidateInvalidValue, "validating config")
	}
	return &cfg, nil
}

// Save writes the state file as indented JSON with 0600 permissions.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	if errs := c.Validate(); len(errs) > 0 {
		return bmerr.Wrap(joinErrs(errs), bmerr.CodeConfigValidateInvalidValue, "validating config before save")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return bmerr.Errorf(bmerr.CodeConfigSaveWriteFailure, "encoding config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return bmerr.Errorf(bmerr.CodeConfigSaveWriteFailure, "writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks the state for logical errors, collecting all issues rather
// than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	if c.DefaultBackend != "" {
		switch c.DefaultBackend {
		case "groq", "ollama":
		default:
			errs = append(errs, bmerr.Errorf(bmerr.CodeConfigValidateInvalidValue,
				"config: default_backend must be one of [groq, ollama], got %q", c.DefaultBackend))
		}
	}

	if c.DefaultTemperature < 0 || c.DefaultTemperature > 1 {
		errs = append(errs, bmerr.Errorf(bmerr.CodeConfigValidateInvalidValue,
			"config: default_temperature must be in [0, 1], got %g", c.DefaultTemperature))
	}

	if c.VectorBackend != "" {
		switch c.VectorBackend {
		case "milvus", "sqlite":
		default:
			errs = append(errs, bmerr.Errorf(bmerr.CodeConfigValidateInvalidValue,
				"config: vector_backend must be one of [milvus, sqlite], got %q", c.VectorBackend))
		}
	}

	if c.Initialized && c.CollectionName == "" {
		errs = append(errs, bmerr.Errorf(bmerr.CodeConfigValidateInvalidValue,
			"config: collection_name must not be empty once initialized"))
	}

	return errs
}

func joinErrs(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return bmerr.Join(errs...)
}
