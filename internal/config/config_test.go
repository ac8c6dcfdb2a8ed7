package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/unicorn/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, '\\', cfg.TriggerRune())

	cfg, err = config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "unicorn.toml", `
trie = "tables/greek.yaml"
trigger = ";"
log_level = "debug"
strict = true

[redis]
addr = "localhost:6379"
db = 2
ttl = "30m"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tables", "greek.yaml"), cfg.Trie)
	assert.Equal(t, ';', cfg.TriggerRune())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 30*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "unicorn:session:", cfg.Redis.Prefix, "unset keys keep their defaults")
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "unicorn.yaml", `
trie: /etc/unicorn/table.json
listen: "127.0.0.1:9000"
redis:
  prefix: "ime:"
  ttl: 1h
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/unicorn/table.json", cfg.Trie)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	assert.Equal(t, "ime:", cfg.Redis.Prefix)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("UNICORN_TRIGGER", "@")
	t.Setenv("UNICORN_LISTEN", ":9999")
	t.Setenv("UNICORN_STRICT", "true")
	t.Setenv("UNICORN_REDIS_ADDR", "redis:6379")
	t.Setenv("UNICORN_REDIS_DB", "3")
	t.Setenv("UNICORN_REDIS_TTL", "90s")

	dir := t.TempDir()
	path := write(t, dir, "unicorn.toml", "trigger = \";\"\nlisten = \":1\"\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, '@', cfg.TriggerRune())
	assert.Equal(t, ":9999", cfg.Listen)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 90*time.Second, cfg.Redis.TTL)
}

func TestLoad_EnvErrors(t *testing.T) {
	tests := map[string]string{
		"UNICORN_STRICT":    "maybe",
		"UNICORN_REDIS_DB":  "two",
		"UNICORN_REDIS_TTL": "forever",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := config.Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_DecodeErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.Load(write(t, dir, "bad.toml", "trie = "))
	assert.ErrorContains(t, err, "decode TOML")

	_, err = config.Load(write(t, dir, "bad.yaml", "trie: [unclosed"))
	assert.ErrorContains(t, err, "decode YAML")

	_, err = config.Load(write(t, dir, "unicorn.ini", "trie=x"))
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Trie = ""
	cfg.Trigger = "ab"
	cfg.LogLevel = "loud"
	cfg.Redis.DB = -1
	cfg.Redis.TTL = -time.Second

	err := cfg.Validate()
	require.Error(t, err)
	for _, field := range []string{"trie:", "trigger:", "log_level:", "redis.db:", "redis.ttl:"} {
		assert.Contains(t, err.Error(), field)
	}

	assert.NoError(t, config.Default().Validate())
}

func TestEncryptionKeys(t *testing.T) {
	const key = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

	t.Run("disabled", func(t *testing.T) {
		active, fallbacks, err := config.Default().EncryptionKeys()
		require.NoError(t, err)
		assert.Nil(t, active)
		assert.Nil(t, fallbacks)
	})

	t.Run("active and fallback", func(t *testing.T) {
		cfg := config.Default()
		cfg.Encryption.Key = key
		cfg.Encryption.FallbackKeys = []string{key}
		active, fallbacks, err := cfg.EncryptionKeys()
		require.NoError(t, err)
		assert.Len(t, active, 32)
		assert.Equal(t, byte(0x1f), active[31])
		assert.Len(t, fallbacks, 1)
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv("UNICORN_ENCRYPTION_KEY", key)
		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, key, cfg.Encryption.Key)
	})

	t.Run("invalid keys", func(t *testing.T) {
		cfg := config.Default()
		cfg.Encryption.Key = "zz"
		assert.ErrorContains(t, cfg.Validate(), "encryption.key")

		cfg.Encryption.Key = "abcd"
		assert.ErrorContains(t, cfg.Validate(), "32 bytes")

		cfg.Encryption.Key = ""
		cfg.Encryption.FallbackKeys = []string{key}
		assert.ErrorContains(t, cfg.Validate(), "without encryption.key")
	})
}
