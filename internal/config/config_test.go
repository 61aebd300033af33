package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func minimalYAML() string {
	return `
server:
  base_url: http://localhost:8080
session:
  key: ` + validKey + `
oauth:
  client_id: id
  client_secret: secret
`
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML()))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "lax", cfg.Server.CookieSameSite)
	assert.Equal(t, "https://accounts.google.com", cfg.OAuth.Issuer)
	assert.Equal(t, DefaultScopes, cfg.OAuth.Scopes)
	assert.Equal(t, 600*time.Second, cfg.OAuth.StateTTL)
	assert.Equal(t, 10, cfg.Classroom.PageSize)
	assert.Equal(t, 8, cfg.Classroom.MaxConcurrency)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	require.NoError(t, cfg.Validate())
}

func TestParseSecretsFromEnv(t *testing.T) {
	t.Setenv("CLASSBOARD_CLIENT_ID", "env-id")
	t.Setenv("CLASSBOARD_CLIENT_SECRET", "env-secret")

	cfg, err := Parse([]byte(minimalYAML()))
	require.NoError(t, err)
	assert.Equal(t, "env-id", cfg.OAuth.ClientID)
	assert.Equal(t, "env-secret", cfg.OAuth.ClientSecret)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.Server.BaseURL = "" },
			wantErr: "base_url is required",
		},
		{
			name:    "bad same site",
			mutate:  func(c *Config) { c.Server.CookieSameSite = "sometimes" },
			wantErr: "invalid cookie_same_site",
		},
		{
			name:    "short session key",
			mutate:  func(c *Config) { c.Session.Key = "abcd" },
			wantErr: "at least 32 bytes",
		},
		{
			name:    "session key not hex",
			mutate:  func(c *Config) { c.Session.Key = strings.Repeat("z", 64) },
			wantErr: "not valid hex",
		},
		{
			name:    "missing client secret",
			mutate:  func(c *Config) { c.OAuth.ClientSecret = "" },
			wantErr: "client_secret is required",
		},
		{
			name: "no endpoints",
			mutate: func(c *Config) {
				c.OAuth.Issuer = ""
				c.OAuth.TokenURL = "http://token"
			},
			wantErr: "either issuer or both auth_url and token_url",
		},
		{
			name:    "redis without address",
			mutate:  func(c *Config) { c.Cache.Type = "redis"; c.Cache.Redis = &RedisConfig{} },
			wantErr: "redis address is required",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid format",
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.Classroom.PageSize = -1 },
			wantErr: "page_size must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(minimalYAML()))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
