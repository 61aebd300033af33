package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MinSessionKeyLen is the minimum decoded length of session.key.
const MinSessionKeyLen = 32

func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.validateSession(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}

	if err := c.validateOAuth(); err != nil {
		return fmt.Errorf("oauth config: %w", err)
	}

	if err := c.validateClassroom(); err != nil {
		return fmt.Errorf("classroom config: %w", err)
	}

	if err := c.validateCache(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Server.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	if _, err := url.Parse(c.Server.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}

	sameSite := strings.ToLower(c.Server.CookieSameSite)
	if sameSite != "lax" && sameSite != "strict" && sameSite != "none" {
		return fmt.Errorf("invalid cookie_same_site: %s (must be lax, strict, or none)", c.Server.CookieSameSite)
	}

	return nil
}

func (c *Config) validateSession() error {
	if c.Session.Key == "" {
		return fmt.Errorf("key is required")
	}

	key, err := c.SessionKey()
	if err != nil {
		return err
	}
	if len(key) < MinSessionKeyLen {
		return fmt.Errorf("key must decode to at least %d bytes, got %d", MinSessionKeyLen, len(key))
	}

	return nil
}

func (c *Config) validateOAuth() error {
	if c.OAuth.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}

	if c.OAuth.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}

	if c.OAuth.Issuer == "" && (c.OAuth.AuthURL == "" || c.OAuth.TokenURL == "") {
		return fmt.Errorf("either issuer or both auth_url and token_url are required")
	}

	for name, raw := range map[string]string{"issuer": c.OAuth.Issuer, "auth_url": c.OAuth.AuthURL, "token_url": c.OAuth.TokenURL} {
		if raw == "" {
			continue
		}
		if _, err := url.Parse(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.OAuth.VerifyIDToken && c.OAuth.Issuer == "" {
		return fmt.Errorf("verify_id_token requires issuer")
	}

	if c.OAuth.StateTTL < time.Second {
		return fmt.Errorf("state_ttl must be at least 1 second")
	}

	return nil
}

func (c *Config) validateClassroom() error {
	if c.Classroom.PageSize < 1 {
		return fmt.Errorf("page_size must be positive")
	}

	if c.Classroom.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be positive")
	}

	if c.Classroom.Timeout < 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.Classroom.Endpoint != "" {
		if _, err := url.Parse(c.Classroom.Endpoint); err != nil {
			return fmt.Errorf("invalid endpoint: %w", err)
		}
	}

	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Type != "memory" && c.Cache.Type != "redis" {
		return fmt.Errorf("invalid type: %s (must be memory or redis)", c.Cache.Type)
	}

	if c.Cache.Type == "redis" {
		if c.Cache.Redis == nil {
			return fmt.Errorf("redis config is required when type is redis")
		}
		if c.Cache.Redis.Address == "" {
			return fmt.Errorf("redis address is required")
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	if level != "debug" && level != "info" && level != "warn" && level != "error" {
		return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}
