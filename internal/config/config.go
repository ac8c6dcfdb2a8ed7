// Package config handles configuration loading and validation for the unicorn CLI.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/unicorn/internal/logging"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "UNICORN_"

// Config is the host configuration. The mnemonic table itself lives in the file named by Trie.
type Config struct {
	Trie     string `toml:"trie" yaml:"trie"`
	Trigger  string `toml:"trigger" yaml:"trigger"`
	Listen   string `toml:"listen" yaml:"listen"`
	LogLevel string `toml:"log_level" yaml:"log_level"`
	Strict   bool   `toml:"strict" yaml:"strict"`

	// SessionsDir keeps sessions as JSON files when Redis is not configured.
	SessionsDir string `toml:"sessions_dir" yaml:"sessions_dir"`

	Redis      RedisConfig      `toml:"redis" yaml:"redis"`
	Encryption EncryptionConfig `toml:"encryption" yaml:"encryption"`
}

// EncryptionConfig seals stored sessions. Keys are hex-encoded 32-byte AES keys;
// an empty Key stores compositions in clear.
type EncryptionConfig struct {
	Key          string   `toml:"key" yaml:"key"`
	FallbackKeys []string `toml:"fallback_keys" yaml:"fallback_keys"`
}

// RedisConfig enables shared session storage. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string        `toml:"addr" yaml:"addr"`
	Password string        `toml:"password" yaml:"password"`
	DB       int           `toml:"db" yaml:"db"`
	Prefix   string        `toml:"prefix" yaml:"prefix"`
	TTL      time.Duration `toml:"ttl" yaml:"ttl"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Trie:     "mnemonics.json",
		Trigger:  `\`,
		Listen:   ":8080",
		LogLevel: "info",
		Redis: RedisConfig{
			Prefix: "unicorn:session:",
		},
	}
}

// Load reads path (TOML or YAML by extension) over the defaults, applies
// environment overrides and validates. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := decode(path, data, cfg); err != nil {
				return nil, err
			}
			// Relative table paths are resolved against the config file.
			if cfg.Trie != "" && !filepath.IsAbs(cfg.Trie) {
				cfg.Trie = filepath.Join(filepath.Dir(path), cfg.Trie)
			}
			if cfg.SessionsDir != "" && !filepath.IsAbs(cfg.SessionsDir) {
				cfg.SessionsDir = filepath.Join(filepath.Dir(path), cfg.SessionsDir)
			}
		}
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format: %s", path)
	}
	return nil
}

// ApplyEnvOverrides applies UNICORN_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv(EnvPrefix + "TRIE"); v != "" {
		c.Trie = v
	}
	if v := os.Getenv(EnvPrefix + "TRIGGER"); v != "" {
		c.Trigger = v
	}
	if v := os.Getenv(EnvPrefix + "LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvPrefix + "STRICT"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSTRICT: %w", EnvPrefix, err)
		}
		c.Strict = strict
	}
	if v := os.Getenv(EnvPrefix + "SESSIONS_DIR"); v != "" {
		c.SessionsDir = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", EnvPrefix, err)
		}
		c.Redis.DB = db
	}
	if v := os.Getenv(EnvPrefix + "REDIS_PREFIX"); v != "" {
		c.Redis.Prefix = v
	}
	if v := os.Getenv(EnvPrefix + "ENCRYPTION_KEY"); v != "" {
		c.Encryption.Key = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_TTL: %w", EnvPrefix, err)
		}
		c.Redis.TTL = ttl
	}
	return nil
}

// Validate checks field values; all problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	if c.Trie == "" {
		errs = append(errs, errors.New("trie: path is required"))
	}
	if utf8.RuneCountInString(c.Trigger) != 1 {
		errs = append(errs, fmt.Errorf("trigger: must be exactly one character, got %q", c.Trigger))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("redis.db: must not be negative, got %d", c.Redis.DB))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, fmt.Errorf("redis.ttl: must not be negative, got %s", c.Redis.TTL))
	}
	if _, _, err := c.EncryptionKeys(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// EncryptionKeys decodes the session encryption keys. active is nil when
// encryption is disabled.
func (c *Config) EncryptionKeys() (active []byte, fallbacks [][]byte, err error) {
	if c.Encryption.Key == "" {
		if len(c.Encryption.FallbackKeys) > 0 {
			return nil, nil, errors.New("encryption.fallback_keys: set without encryption.key")
		}
		return nil, nil, nil
	}
	if active, err = decodeKey(c.Encryption.Key); err != nil {
		return nil, nil, fmt.Errorf("encryption.key: %w", err)
	}
	for i, k := range c.Encryption.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("encryption.fallback_keys[%d]: %w", i, err)
		}
		fallbacks = append(fallbacks, key)
	}
	return active, fallbacks, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("must be hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// TriggerRune returns the trigger as a rune. Call after Validate.
func (c *Config) TriggerRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Trigger)
	return r
}
