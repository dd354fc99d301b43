package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file name inside the config directory.
const FileName = "config.toml"

// ConfigStore reads and writes the engine configuration as TOML.
type ConfigStore struct {
	mu       sync.RWMutex
	dir      string
	filePath string
}

// NewConfigStore creates a store for configDir/config.toml.
// If configDir is empty, defaults to ~/.trakhound.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".trakhound")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &ConfigStore{
		dir:      configDir,
		filePath: filepath.Join(configDir, FileName),
	}, nil
}

// Load reads and validates the configuration. A missing file yields
// Default. Zero fields are filled from Default and a relative DataDir is
// resolved against the config directory.
func (s *ConfigStore) Load() (Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := Default()
	data, err := os.ReadFile(s.filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, err
	default:
		// drivers in the file replace the default list
		cfg.Drivers = nil
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", s.filePath, err)
		}
	}

	s.complete(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (s *ConfigStore) complete(cfg *Config) {
	def := Default()
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(s.dir, "data")
	} else if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(s.dir, cfg.DataDir)
	}
	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = def.HTTP.Listen
	}
	if cfg.Query.Match == "" {
		cfg.Query.Match = def.Query.Match
	}
	if cfg.Query.Concurrency == 0 {
		cfg.Query.Concurrency = def.Query.Concurrency
	}
	if cfg.Query.Timeout == 0 {
		cfg.Query.Timeout = def.Query.Timeout
	}
}

// Save validates cfg and writes it to disk.
func (s *ConfigStore) Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// Dir returns the configuration directory.
func (s *ConfigStore) Dir() string {
	return s.dir
}
