package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oddmeter/oddmeter/pkg/lm"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	baseURLEnvVar = "ODDMETER_BASE_URL"
	modelEnvVar   = "ODDMETER_MODEL"

	timeoutSecondsDefault = 30
	maxConcurrencyDefault = 4
)

// Config holds provider and runtime settings read from the app home dir.
type Config struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxConcurrency int    `yaml:"max_concurrency"`
}

func getDefaultConfig() *Config {
	return &Config{
		BaseURL:        lm.DefaultBaseURL,
		Model:          lm.DefaultModel,
		TimeoutSeconds: timeoutSecondsDefault,
		MaxConcurrency: maxConcurrencyDefault,
	}
}

// Timeout returns the provider call timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Save writes the config file into the given directory.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// ReadOrCreate reads app config from the directory, creating a default
// one on first run. Environment variables override file values.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.Mkdir(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("creating dir %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(dirPath, getDefaultConfig()); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling config file %s: %w", path, err)
	}

	applyEnv(&c)
	normalize(&c)

	return &c, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv(baseURLEnvVar); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(modelEnvVar); v != "" {
		c.Model = v
	}
}

func normalize(c *Config) {
	if c.BaseURL == "" {
		c.BaseURL = lm.DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = lm.DefaultModel
	}
	if c.TimeoutSeconds < 1 {
		c.TimeoutSeconds = timeoutSecondsDefault
	}
	if c.MaxConcurrency < 1 {
		c.MaxConcurrency = maxConcurrencyDefault
	}
}
