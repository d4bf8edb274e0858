// Package config loads the server configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-louvain/pkg/validation"
)

// Config is the top-level configuration file
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Louvain  LouvainConfig  `yaml:"louvain"`
	Logging  LoggingConfig  `yaml:"logging"`
	Sessions SessionsConfig `yaml:"sessions"`
	Events   EventsConfig   `yaml:"events"`
	Results  ResultsConfig  `yaml:"results"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// JWTSecret enables bearer-token auth on the session routes when set
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	// Users maps usernames to bcrypt hashes accepted by POST /auth/token
	Users map[string]string `yaml:"users"`

	CORSOrigins     []string `yaml:"cors_origins"`
	MaxBodyBytes    int      `yaml:"max_body_bytes"`
	GraphQLMaxDepth int      `yaml:"graphql_max_depth"`
}

// LouvainConfig bounds the work a single session may do
type LouvainConfig struct {
	MaxNodes    int `yaml:"max_nodes"`
	MaxLevels   int `yaml:"max_levels"`
	HistorySize int `yaml:"history_size"`
	MaxTicks    int `yaml:"max_ticks"`
}

// LoggingConfig sets the log level
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SessionsConfig bounds the session store
type SessionsConfig struct {
	MaxSessions   int           `yaml:"max_sessions"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// EventsConfig enables the NNG session event feed
type EventsConfig struct {
	// Listen is a mangos address such as tcp://0.0.0.0:5557; empty disables the feed
	Listen    string `yaml:"listen"`
	QueueSize int    `yaml:"queue_size"`
}

// ResultsConfig enables persisting /communities runs. PostgresDSN wins
// over Dir when both are set.
type ResultsConfig struct {
	Dir         string `yaml:"dir"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// MinJWTSecretLength matches the HS256 key requirement of the auth middleware
const MinJWTSecretLength = 32

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			TokenTTL:        24 * time.Hour,
			MaxBodyBytes:    4 << 20,
			GraphQLMaxDepth: 5,
		},
		Louvain: LouvainConfig{
			MaxNodes:    2000,
			MaxLevels:   32,
			HistorySize: 256,
			MaxTicks:    1_000_000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Sessions: SessionsConfig{
			MaxSessions:   100,
			TTL:           30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Events: EventsConfig{
			QueueSize: 1024,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from LOUVAIN_PORT, LOUVAIN_JWT_SECRET,
// LOUVAIN_CORS_ORIGINS (comma separated), LOUVAIN_EVENTS_LISTEN,
// LOUVAIN_RESULTS_DIR, LOUVAIN_PG_DSN and LOG_LEVEL
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("LOUVAIN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LOUVAIN_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LOUVAIN_JWT_SECRET"); v != "" {
		c.Server.JWTSecret = v
	}
	if v := os.Getenv("LOUVAIN_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, o)
			}
		}
	}
	if v := os.Getenv("LOUVAIN_EVENTS_LISTEN"); v != "" {
		c.Events.Listen = v
	}
	if v := os.Getenv("LOUVAIN_RESULTS_DIR"); v != "" {
		c.Results.Dir = v
	}
	if v := os.Getenv("LOUVAIN_PG_DSN"); v != "" {
		c.Results.PostgresDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	return validation.NewConfigValidator("config").
		RangeInt("server.port", c.Server.Port, 1, 65535).
		MinDuration("server.read_timeout", c.Server.ReadTimeout, time.Second).
		MinDuration("server.write_timeout", c.Server.WriteTimeout, time.Second).
		MinDuration("server.idle_timeout", c.Server.IdleTimeout, time.Second).
		Positive("server.max_body_bytes", c.Server.MaxBodyBytes).
		RangeInt("server.graphql_max_depth", c.Server.GraphQLMaxDepth, 1, 32).
		When(c.Server.JWTSecret != "", func(cv *validation.ConfigValidator) {
			cv.MinLength("server.jwt_secret", c.Server.JWTSecret, MinJWTSecretLength)
			cv.MinDuration("server.token_ttl", c.Server.TokenTTL, time.Minute)
		}).
		When(len(c.Server.Users) > 0, func(cv *validation.ConfigValidator) {
			cv.Required("server.jwt_secret", c.Server.JWTSecret)
		}).
		Positive("louvain.max_nodes", c.Louvain.MaxNodes).
		RangeInt("louvain.max_levels", c.Louvain.MaxLevels, 1, 1024).
		Positive("louvain.history_size", c.Louvain.HistorySize).
		RangeInt("louvain.max_ticks", c.Louvain.MaxTicks, 1, validation.MaxRunTicks).
		OneOf("logging.level", c.Logging.Level, []string{"debug", "info", "warn", "warning", "error", "DEBUG", "INFO", "WARN", "WARNING", "ERROR"}).
		Positive("sessions.max_sessions", c.Sessions.MaxSessions).
		MinDuration("sessions.ttl", c.Sessions.TTL, time.Second).
		MinDuration("sessions.sweep_interval", c.Sessions.SweepInterval, time.Second).
		When(c.Events.Listen != "", func(cv *validation.ConfigValidator) {
			cv.Positive("events.queue_size", c.Events.QueueSize)
		}).
		Validate()
}
