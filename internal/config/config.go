package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the application configuration
type Config struct {
	Addr              string   `env:"RSVP_ADDR" envDefault:":8000"`
	DatabasePath      string   `env:"RSVP_DATABASE_PATH" envDefault:"data/rsvp.db"`
	AllowedOrigins    []string `env:"RSVP_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel          string   `env:"RSVP_LOG_LEVEL" envDefault:"info"`
	InvitationBaseURL string   `env:"RSVP_INVITATION_BASE_URL" envDefault:"http://localhost:5173"`

	WhatsAppEnabled     bool     `env:"WHATSAPP_ENABLED" envDefault:"false"`
	WhatsAppDataDir     string   `env:"WHATSAPP_DATA_DIR" envDefault:"data"`
	WhatsAppHostNumbers []string `env:"WHATSAPP_HOST_NUMBERS" envSeparator:","`

	BrideName string `env:"BRIDE_NAME" envDefault:"Bride"`
	GroomName string `env:"GROOM_NAME" envDefault:"Groom"`
}

// LoadConfig reads an optional .env file and then the environment.
// Variables already set in the environment win over the file.
func LoadConfig(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("RSVP_DATABASE_PATH is required")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("RSVP_LOG_LEVEL: %w", err)
	}
	c.InvitationBaseURL = strings.TrimRight(c.InvitationBaseURL, "/")
	return nil
}

// NotifiesHosts reports whether the server should message hosts about RSVPs.
// The admin tool sends invitations with WhatsApp alone and needs no hosts.
func (c *Config) NotifiesHosts() bool {
	return c.WhatsAppEnabled && len(c.WhatsAppHostNumbers) > 0
}

// Level returns the configured log level.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
