package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port        string         `json:"port" yaml:"port"`
	Env         string         `json:"env" yaml:"env"`
	ClientURL   string         `json:"client_url" yaml:"client_url"`
	Database    DatabaseConfig `json:"database" yaml:"database"`
	Sessions    SessionConfig  `json:"sessions" yaml:"sessions"`
	OIDC        OIDCConfig     `json:"oidc" yaml:"oidc"`
	TMDB        TMDBConfig     `json:"tmdb" yaml:"tmdb"`
	RateLimit   RateLimit      `json:"rate_limit" yaml:"rate_limit"`
	Log         LogConfig      `json:"log" yaml:"log"`
	BodyLimitMB int            `json:"body_limit_mb" yaml:"body_limit_mb"`
}

// FrontendConfig holds configuration for the Web Frontend service
type FrontendConfig struct {
	APIURL        string    `json:"api_url" yaml:"api_url"`
	Port          string    `json:"port" yaml:"port"`
	SessionCookie string    `json:"session_cookie" yaml:"session_cookie"`
	Log           LogConfig `json:"log" yaml:"log"`
}

type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver"` // memory | postgres | mongo
	URL    string `json:"url" yaml:"url"`
	Name   string `json:"name" yaml:"name"`
}

type SessionConfig struct {
	Driver     string `json:"driver" yaml:"driver"` // memory | redis
	RedisURL   string `json:"redis_url" yaml:"redis_url"`
	TTLHours   int    `json:"ttl_hours" yaml:"ttl_hours"`
	CookieName string `json:"cookie_name" yaml:"cookie_name"`
	Secret     string `json:"secret" yaml:"secret"`
}

type OIDCConfig struct {
	ProviderURL  string `json:"provider_url" yaml:"provider_url"`
	ClientID     string `json:"client_id" yaml:"client_id"`
	ClientSecret string `json:"client_secret" yaml:"client_secret"`
	RedirectURL  string `json:"redirect_url" yaml:"redirect_url"`
}

type TMDBConfig struct {
	Token   string `json:"token" yaml:"token"`
	BaseURL string `json:"base_url" yaml:"base_url"`
}

type RateLimit struct {
	PerMinute int `json:"per_minute" yaml:"per_minute"`
	Burst     int `json:"burst" yaml:"burst"`
}

type LogConfig struct {
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
}

// DefaultServerConfig mirrors the values the server runs with when nothing is configured.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:      "5000",
		Env:       EnvDevelopment,
		ClientURL: "http://localhost:5173",
		Database: DatabaseConfig{
			Driver: "memory",
			Name:   "cinescope",
		},
		Sessions: SessionConfig{
			Driver:     "memory",
			TTLHours:   24 * 7,
			CookieName: "cinescope.sid",
		},
		OIDC: OIDCConfig{
			ProviderURL: "https://accounts.google.com",
			RedirectURL: "http://localhost:5000/auth/google/callback",
		},
		TMDB: TMDBConfig{
			BaseURL: "https://api.themoviedb.org/3",
		},
		RateLimit: RateLimit{
			PerMinute: 120,
			Burst:     30,
		},
		Log: LogConfig{
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
		BodyLimitMB: 10,
	}
}

func DefaultFrontendConfig() FrontendConfig {
	return FrontendConfig{
		APIURL:        "http://localhost:5000",
		Port:          "8080",
		SessionCookie: "cinescope.sid",
		Log: LogConfig{
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// Load loads the configuration from a file (YAML or JSON)
func Load(path string, cfg interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return fmt.Errorf("failed to decode YAML config file %s: %w", path, err)
		}
	} else {
		// Default to JSON for compatibility or other extensions
		decoder := json.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return fmt.Errorf("failed to decode JSON config file %s: %w", path, err)
		}
	}

	return nil
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are not an error; values already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// LoadServer builds the server config: defaults, then the optional config
// file, then environment overrides.
func LoadServer(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path != "" {
		if err := Load(path, &cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadFrontend(path string) (*FrontendConfig, error) {
	cfg := DefaultFrontendConfig()
	if path != "" {
		if err := Load(path, &cfg); err != nil {
			return nil, err
		}
	}
	setString(&cfg.APIURL, "API_URL")
	setString(&cfg.Port, "PORT")
	setString(&cfg.SessionCookie, "SESSION_COOKIE_NAME")
	setString(&cfg.Log.File, "LOG_FILE")
	return &cfg, nil
}

// ApplyEnv overrides file values with environment variables.
func (c *ServerConfig) ApplyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.Env, "APP_ENV")
	setString(&c.ClientURL, "CLIENT_URL")

	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Name, "DATABASE_NAME")

	setString(&c.Sessions.Driver, "SESSION_DRIVER")
	setString(&c.Sessions.RedisURL, "REDIS_URL")
	setString(&c.Sessions.Secret, "SESSION_SECRET")
	setString(&c.Sessions.CookieName, "SESSION_COOKIE_NAME")
	setInt(&c.Sessions.TTLHours, "SESSION_TTL_HOURS")

	setString(&c.OIDC.ProviderURL, "OIDC_PROVIDER")
	setString(&c.OIDC.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.OIDC.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.OIDC.RedirectURL, "OIDC_REDIRECT_URL")

	setString(&c.TMDB.Token, "TMDB_TOKEN")
	setString(&c.TMDB.BaseURL, "TMDB_BASE_URL")

	setInt(&c.RateLimit.PerMinute, "RATE_LIMIT_PER_MINUTE")
	setInt(&c.RateLimit.Burst, "RATE_LIMIT_BURST")

	setString(&c.Log.File, "LOG_FILE")
}

func (c *ServerConfig) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("unknown env %q", c.Env)
	}
	switch c.Database.Driver {
	case "memory":
	case "postgres", "mongo":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Sessions.Driver {
	case "memory":
	case "redis":
		if c.Sessions.RedisURL == "" {
			return errors.New("sessions.redis_url is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown session driver %q", c.Sessions.Driver)
	}
	if c.IsProduction() && c.Sessions.Secret == "" {
		return errors.New("sessions.secret is required in production")
	}
	return nil
}

func (c *ServerConfig) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *ServerConfig) OIDCEnabled() bool {
	return c.OIDC.ProviderURL != "" && c.OIDC.ClientID != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}
