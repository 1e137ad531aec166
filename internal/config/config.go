package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the flat-keyed settings file written by `gosimon init`. The same
// file is read back through LoadSettings, so every field maps to one key.
type Config struct {
	AppName  string `yaml:"APP_NAME"`
	LogLevel string `yaml:"LOG_LEVEL"`

	URI        string `yaml:"MONGO_URI,omitempty"`
	Host       string `yaml:"MONGO_HOST,omitempty"`
	Port       int    `yaml:"MONGO_PORT,omitempty"`
	Database   string `yaml:"MONGO_DBNAME,omitempty"`
	Username   string `yaml:"MONGO_USERNAME,omitempty"`
	Password   string `yaml:"MONGO_PASSWORD,omitempty"`
	ReplicaSet string `yaml:"MONGO_REPLICA_SET,omitempty"`

	// Basic auth credentials for the example app's write endpoints
	AdminUsername string `yaml:"USERNAME,omitempty"`
	AdminPassword string `yaml:"PASSWORD,omitempty"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		AppName:  "gosimon",
		LogLevel: "info",
		Host:     DefaultHost,
		Port:     DefaultPort,
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// may hold credentials
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Settings flattens the file into the mapping Resolve reads. Empty fields
// are left out so that defaults still apply.
func (c *Config) Settings() *Settings {
	s := NewSettings()
	set := func(key string, value interface{}) {
		switch v := value.(type) {
		case string:
			if v == "" {
				return
			}
		case int:
			if v == 0 {
				return
			}
		}
		s.Set(key, value)
	}

	set(KeyAppName, c.AppName)
	set(KeyLogLevel, c.LogLevel)
	set(Key(DefaultPrefix, "URI"), c.URI)
	set(Key(DefaultPrefix, "HOST"), c.Host)
	set(Key(DefaultPrefix, "PORT"), c.Port)
	set(Key(DefaultPrefix, "DBNAME"), c.Database)
	set(Key(DefaultPrefix, "USERNAME"), c.Username)
	set(Key(DefaultPrefix, "PASSWORD"), c.Password)
	set(Key(DefaultPrefix, "REPLICA_SET"), c.ReplicaSet)
	set(KeyUsername, c.AdminUsername)
	set(KeyPassword, c.AdminPassword)
	return s
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gosimon/config.yaml"
	}
	return filepath.Join(home, ".gosimon", "config.yaml")
}

// Exists checks if config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
