// Package config loads process settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

const EnvPrefix = "TURNSTREAM"

const (
	BackendOpenAICompat    = "openai-compat"
	BackendLangchainOpenAI = "langchain-openai"
	BackendLangchainOllama = "langchain-ollama"
)

// Settings are read from TURNSTREAM_* variables.
type Settings struct {
	Backend    string `envconfig:"BACKEND" default:"openai-compat"`
	BaseURL    string `envconfig:"BASE_URL" default:"http://localhost:8000/v1"`
	APIKey     string `envconfig:"API_KEY"`
	Model      string `envconfig:"MODEL"`
	Dialect    string `envconfig:"DIALECT" default:"openai"`
	DialectDir string `envconfig:"DIALECT_DIR" default:"dialects"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load applies envFile (if it exists) without overriding variables already set, then
// reads Settings from the environment.
func Load(envFile string) (*Settings, error) {
	if err := LoadDotenv(envFile, false); err != nil {
		return nil, err
	}
	var s Settings
	if err := envconfig.Process(EnvPrefix, &s); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadDotenv sets the KEY=VALUE pairs in path. A missing file is not an error. With
// overwrite unset, variables already in the environment win.
func LoadDotenv(path string, overwrite bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var err error
	if overwrite {
		err = godotenv.Overload(path)
	} else {
		err = godotenv.Load(path)
	}
	if err != nil {
		return fmt.Errorf("dotenv %s: %w", path, err)
	}
	return nil
}

func (s *Settings) Validate() error {
	switch s.Backend {
	case BackendOpenAICompat, BackendLangchainOpenAI, BackendLangchainOllama:
	default:
		return fmt.Errorf("invalid %s_BACKEND: %q (want %s|%s|%s)", EnvPrefix, s.Backend,
			BackendOpenAICompat, BackendLangchainOpenAI, BackendLangchainOllama)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel)); err != nil {
		return fmt.Errorf("invalid %s_LOG_LEVEL: %w", EnvPrefix, err)
	}
	return nil
}

// Level is the parsed LogLevel; unparseable values fall back to info.
func (s *Settings) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
