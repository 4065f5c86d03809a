// Package config loads abbot-web runtime settings from config.json, a local
// .env file and ABBOT_* environment variables, in that order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultAddr              = "127.0.0.1"
	defaultPort              = ":8880"
	defaultInviteEndpoint    = "http://127.0.0.1:3000/api/sendInvite"
	defaultInviteTimeout     = 10
	defaultSessionTTL        = 1800
	defaultSessionSweep      = 60
	defaultSessionCookieName = "abbot_session"
	defaultTelegramHandle    = "atl_bitlab_bot"
	defaultNostrNpub         = "npub1agq3p0xznd07eactnzv2lur7nd62uaj0vuar328et3u0kzjprzxqxcqvrk"
	defaultContactEmail      = "abbot@atlbitlab.com"

	// EnvPrefix namespaces every environment override.
	EnvPrefix = "ABBOT_"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `json:"addr" env:"ADDR"`
	Port string `json:"port" env:"PORT"`
}

// InviteConfig points the invitation dispatcher at the backend that actually
// sends invites.
type InviteConfig struct {
	Endpoint       string `json:"endpoint" env:"ENDPOINT"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

// SessionConfig controls how long a visitor's page state is kept in memory.
type SessionConfig struct {
	TTLSeconds   int    `json:"ttl_seconds" env:"TTL_SECONDS"`
	SweepSeconds int    `json:"sweep_seconds" env:"SWEEP_SECONDS"`
	CookieName   string `json:"cookie_name" env:"COOKIE_NAME"`
	SecureCookie bool   `json:"secure_cookie" env:"SECURE_COOKIE"`
}

// SiteConfig carries the bot identities rendered into the landing page.
type SiteConfig struct {
	TelegramHandle string `json:"telegram_handle" env:"TELEGRAM_HANDLE"`
	NostrNpub      string `json:"nostr_npub" env:"NOSTR_NPUB"`
	ContactEmail   string `json:"contact_email" env:"CONTACT_EMAIL"`
}

// Config represents the combined runtime settings.
type Config struct {
	Server  ServerConfig  `json:"server" envPrefix:"SERVER_"`
	Invite  InviteConfig  `json:"invite" envPrefix:"INVITE_"`
	Session SessionConfig `json:"session" envPrefix:"SESSION_"`
	Site    SiteConfig    `json:"site" envPrefix:"SITE_"`
}

// Load reads the JSON config at path, applies environment overrides and fills
// defaults. A missing file is an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return parse(data)
}

// LoadOptional behaves like Load but falls back to defaults plus environment
// overrides when the file does not exist.
func LoadOptional(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return parse(nil)
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (Config, error) {
	var cfg Config
	if len(data) > 0 {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays ABBOT_* environment variables onto cfg. Unset variables
// leave the existing values untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if !strings.HasPrefix(c.Server.Port, ":") {
		c.Server.Port = ":" + c.Server.Port
	}

	c.Invite.Endpoint = strings.TrimSpace(c.Invite.Endpoint)
	if c.Invite.Endpoint == "" {
		c.Invite.Endpoint = defaultInviteEndpoint
	}
	if c.Invite.TimeoutSeconds <= 0 {
		c.Invite.TimeoutSeconds = defaultInviteTimeout
	}

	if c.Session.TTLSeconds <= 0 {
		c.Session.TTLSeconds = defaultSessionTTL
	}
	if c.Session.SweepSeconds <= 0 {
		c.Session.SweepSeconds = defaultSessionSweep
	}
	c.Session.CookieName = strings.TrimSpace(c.Session.CookieName)
	if c.Session.CookieName == "" {
		c.Session.CookieName = defaultSessionCookieName
	}

	c.Site.TelegramHandle = strings.TrimPrefix(strings.TrimSpace(c.Site.TelegramHandle), "@")
	if c.Site.TelegramHandle == "" {
		c.Site.TelegramHandle = defaultTelegramHandle
	}
	c.Site.NostrNpub = strings.TrimSpace(c.Site.NostrNpub)
	if c.Site.NostrNpub == "" {
		c.Site.NostrNpub = defaultNostrNpub
	}
	c.Site.ContactEmail = strings.TrimSpace(c.Site.ContactEmail)
	if c.Site.ContactEmail == "" {
		c.Site.ContactEmail = defaultContactEmail
	}
}

func (c Config) validate() error {
	if !strings.HasPrefix(c.Invite.Endpoint, "http://") && !strings.HasPrefix(c.Invite.Endpoint, "https://") {
		return fmt.Errorf("invite.endpoint must be an http(s) URL, got %q", c.Invite.Endpoint)
	}
	return nil
}

// InviteTimeout returns the dispatcher timeout as a duration.
func (c Config) InviteTimeout() time.Duration {
	return time.Duration(c.Invite.TimeoutSeconds) * time.Second
}

// SessionTTL returns the idle lifetime of a visitor session.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLSeconds) * time.Second
}

// SweepInterval returns how often expired sessions are dropped.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.Session.SweepSeconds) * time.Second
}
