package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Settings is the host application's configuration mapping. Keys are
// case-insensitive and stored upper-cased.
//
// Settings is written during startup only and is not safe for concurrent
// writes.
type Settings struct {
	values map[string]interface{}
}

// NewSettings returns an empty mapping
func NewSettings() *Settings {
	return &Settings{values: make(map[string]interface{})}
}

// SettingsFrom copies m into a new mapping
func SettingsFrom(m map[string]interface{}) *Settings {
	s := NewSettings()
	for k, v := range m {
		s.Set(k, v)
	}
	return s
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// Get returns the raw value for key
func (s *Settings) Get(key string) (interface{}, bool) {
	v, ok := s.values[normalizeKey(key)]
	return v, ok
}

// Has reports whether key is present, even when its value is empty
func (s *Settings) Has(key string) bool {
	_, ok := s.values[normalizeKey(key)]
	return ok
}

// Set stores value under key, replacing any existing value
func (s *Settings) Set(key string, value interface{}) {
	s.values[normalizeKey(key)] = value
}

// SetDefault stores value only when key is absent and returns the value in
// effect afterwards.
func (s *Settings) SetDefault(key string, value interface{}) interface{} {
	k := normalizeKey(key)
	if existing, ok := s.values[k]; ok {
		return existing
	}
	s.values[k] = value
	return value
}

// String returns the value for key coerced to a string, or "" when absent
func (s *Settings) String(key string) string {
	v, ok := s.Get(key)
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

// Keys returns all keys in sorted order
func (s *Settings) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// settingNames are the per-prefix keys looked up in the environment
var settingNames = []string{"URI", "HOST", "PORT", "DBNAME", "USERNAME", "PASSWORD", "REPLICA_SET"}

// LoadSettings reads a flat-keyed config file (any format viper supports)
// and overlays environment variables for APP_NAME, LOG_LEVEL and for every
// connection key of the given prefixes. A missing file is not an
// error; env-only setups are common in containers.
func LoadSettings(path string, prefixes ...string) (*Settings, error) {
	v := viper.New()

	if path != "" && Exists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	for _, key := range []string{KeyAppName, KeyLogLevel} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", key, err)
		}
	}

	if len(prefixes) == 0 {
		prefixes = []string{DefaultPrefix}
	}
	for _, prefix := range prefixes {
		for _, name := range settingNames {
			key := Key(prefix, name)
			if err := v.BindEnv(key); err != nil {
				return nil, fmt.Errorf("failed to bind env %s: %w", key, err)
			}
		}
	}

	s := NewSettings()
	for _, key := range v.AllKeys() {
		if value := v.Get(key); value != nil {
			s.Set(key, value)
		}
	}

	return s, nil
}
