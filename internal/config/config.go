package config

import (
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`

	Store StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	PartitionCount int  `yaml:"partition_count"` // Shards per collection (default: 16)
	WorkerCount    int  `yaml:"worker_count"`    // Find fan-out pool size (default: NumCPU)
	CacheSize      int  `yaml:"cache_size"`      // Parsed-document LRU entries per collection
	Persist        bool `yaml:"persist"`         // Write-through to the sqlite backend
	Compress       bool `yaml:"compress"`        // s2-compress persisted payloads
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:  "./data",
		LogLevel: "info",
		Store: StoreConfig{
			PartitionCount: 16,
			WorkerCount:    runtime.NumCPU(),
			CacheSize:      1024,
			Persist:        false,
			Compress:       true,
		},
	}
}

// LoadFile reads a YAML config file over the defaults. Missing keys keep
// their default values.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
