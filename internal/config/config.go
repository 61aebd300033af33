package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Session   SessionConfig   `yaml:"session"`
	OAuth     OAuthConfig     `yaml:"oauth"`
	Classroom ClassroomConfig `yaml:"classroom"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
	UI        UIConfig        `yaml:"ui"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	BaseURL        string `yaml:"base_url"`
	CookieDomain   string `yaml:"cookie_domain"`
	CookieSecure   bool   `yaml:"cookie_secure"`
	CookieSameSite string `yaml:"cookie_same_site"`
	AssetsDir      string `yaml:"assets_dir"`
}

// SessionConfig holds the key protecting the cookie jar. Key is hex encoded.
type SessionConfig struct {
	Key string `yaml:"key"`
}

type OAuthConfig struct {
	Issuer        string        `yaml:"issuer"`
	AuthURL       string        `yaml:"auth_url,omitempty"`
	TokenURL      string        `yaml:"token_url,omitempty"`
	ClientID      string        `yaml:"client_id"`
	ClientSecret  string        `yaml:"client_secret"`
	Scopes        []string      `yaml:"scopes"`
	StateTTL      time.Duration `yaml:"state_ttl"`
	VerifyIDToken bool          `yaml:"verify_id_token"`
}

type ClassroomConfig struct {
	Endpoint       string        `yaml:"endpoint,omitempty"`
	PageSize       int           `yaml:"page_size"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	Timeout        time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	Type  string       `yaml:"type"`
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"pool_size"`
	MaxRetries int    `yaml:"max_retries"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type UIConfig struct {
	Title string `yaml:"title"`
}

// DefaultScopes are requested when oauth.scopes is empty.
var DefaultScopes = []string{
	"openid",
	"email",
	"profile",
	"https://www.googleapis.com/auth/classroom.courses.readonly",
	"https://www.googleapis.com/auth/classroom.coursework.me.readonly",
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML config data, applies defaults and environment overrides.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.setDefaults(); err != nil {
		return nil, fmt.Errorf("failed to set defaults: %w", err)
	}

	if err := cfg.loadSecretsFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load secrets from environment: %w", err)
	}

	return &cfg, nil
}

// SessionKey returns the decoded session key.
func (c *Config) SessionKey() ([]byte, error) {
	key, err := hex.DecodeString(c.Session.Key)
	if err != nil {
		return nil, fmt.Errorf("session key is not valid hex: %w", err)
	}
	return key, nil
}

func (c *Config) setDefaults() error {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.CookieSameSite == "" {
		c.Server.CookieSameSite = "lax"
	}
	if c.Server.AssetsDir == "" {
		c.Server.AssetsDir = "assets"
	}

	if c.OAuth.Issuer == "" && c.OAuth.TokenURL == "" {
		c.OAuth.Issuer = "https://accounts.google.com"
	}
	if len(c.OAuth.Scopes) == 0 {
		c.OAuth.Scopes = append([]string(nil), DefaultScopes...)
	}
	if c.OAuth.StateTTL == 0 {
		c.OAuth.StateTTL = 600 * time.Second
	}

	if c.Classroom.PageSize == 0 {
		c.Classroom.PageSize = 10
	}
	if c.Classroom.MaxConcurrency == 0 {
		c.Classroom.MaxConcurrency = 8
	}
	if c.Classroom.Timeout == 0 {
		c.Classroom.Timeout = 30 * time.Second
	}

	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}

	if c.Cache.Type == "redis" && c.Cache.Redis != nil {
		if c.Cache.Redis.PoolSize == 0 {
			c.Cache.Redis.PoolSize = 10
		}
		if c.Cache.Redis.MaxRetries == 0 {
			c.Cache.Redis.MaxRetries = 3
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.UI.Title == "" {
		c.UI.Title = "Classboard"
	}

	return nil
}

func (c *Config) loadSecretsFromEnv() error {
	if v := os.Getenv("CLASSBOARD_CLIENT_ID"); v != "" {
		c.OAuth.ClientID = v
	}
	if v := os.Getenv("CLASSBOARD_CLIENT_SECRET"); v != "" {
		c.OAuth.ClientSecret = v
	}
	if v := os.Getenv("CLASSBOARD_SESSION_KEY"); v != "" {
		c.Session.Key = v
	}

	if c.Cache.Type == "redis" && c.Cache.Redis != nil {
		if envPassword := os.Getenv("REDIS_PASSWORD"); envPassword != "" {
			c.Cache.Redis.Password = envPassword
		}
	}

	return nil
}
