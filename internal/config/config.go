// Package config loads the settings of the composable command from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Handler struct {
	BufferSize int `yaml:"buffer_size"`
	NumWorkers int `yaml:"num_workers,omitempty"`
}

type Config struct {
	Store struct {
		Name    string `yaml:"name"`
		Metrics bool   `yaml:"metrics"`
	} `yaml:"store"`
	Log struct {
		Level   string  `yaml:"level"`
		Handler Handler `yaml:"handler"`
	} `yaml:"log"`
	Binding struct {
		Handler Handler `yaml:"handler"`
	} `yaml:"binding"`
	IDGen struct {
		Handler Handler `yaml:"handler"`
	} `yaml:"idgen"`
}

func Default() Config {
	var c Config
	c.Store.Name = "composable"
	c.Log.Level = "info"
	c.Log.Handler.BufferSize = 16
	c.Binding.Handler = Handler{BufferSize: 1, NumWorkers: 1}
	c.IDGen.Handler.BufferSize = 1
	return c
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Store.Name == "" {
		errs = append(errs, fmt.Errorf("%w: %s must not be empty", ErrInvalid, ConfigStoreName))
	}
	if _, err := c.ZapLevel(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalid, ConfigLogLevel, err))
	}
	positive := map[string]int{
		ConfigLogHandlerBufferSize:     c.Log.Handler.BufferSize,
		ConfigBindingHandlerBufferSize: c.Binding.Handler.BufferSize,
		ConfigBindingHandlerNumWorkers: c.Binding.Handler.NumWorkers,
		ConfigIDGenHandlerBufferSize:   c.IDGen.Handler.BufferSize,
	}
	for _, key := range []string{
		ConfigLogHandlerBufferSize,
		ConfigBindingHandlerBufferSize,
		ConfigBindingHandlerNumWorkers,
		ConfigIDGenHandlerBufferSize,
	} {
		if positive[key] <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive", ErrInvalid, key))
		}
	}
	return errors.Join(errs...)
}

func (c Config) ZapLevel() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.Log.Level)
}

func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
