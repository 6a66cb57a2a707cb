package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the resolver binary.
// Loaded from itemstore.yaml if present; environment variables win.
type Config struct {
	// TableName is the DynamoDB table holding Items.
	TableName string `yaml:"tableName"`

	// SerialNumberIndex is the serialNumber GSI name.
	SerialNumberIndex string `yaml:"serialNumberIndex"`

	// Region is the AWS region; empty defers to the SDK's resolution.
	Region string `yaml:"region"`
}

// LoadConfig searches for itemstore.yaml starting from the current directory
// and walking up to the filesystem root, then applies ITEMSTORE_TABLE,
// ITEMSTORE_INDEX and AWS_REGION overrides.
func LoadConfig() Config {
	var cfg Config

	if path := findConfigFile(); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				slog.Warn("ignoring malformed config file", "path", path, "error", err)
				cfg = Config{}
			}
		}
	}

	if v := os.Getenv("ITEMSTORE_TABLE"); v != "" {
		cfg.TableName = v
	}
	if v := os.Getenv("ITEMSTORE_INDEX"); v != "" {
		cfg.SerialNumberIndex = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Region = v
	}

	return cfg
}

// findConfigFile searches for itemstore.yaml walking up from the current
// directory.
func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, "itemstore.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}
