package config

import (
	"fmt"
	"io"
	"os"

	"presidents-game/internal/shared"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// Config holds the server settings read from the environment.
type Config struct {
	Addr           string   `env:"ADDR"             envDefault:":8080"`
	StaticDir      string   `env:"STATIC_DIR"       envDefault:"web/static"`
	DBDriver       string   `env:"DB_DRIVER"        envDefault:"sqlite3"`
	DBDSN          string   `env:"DB_DSN"           envDefault:"./presidents.db"`
	LogLevel       string   `env:"LOG_LEVEL"        envDefault:"info"`
	LogFormat      string   `env:"LOG_FORMAT"       envDefault:"text"`
	GameRules      string   `env:"GAME_RULES"       envDefault:"standard"`
	GameCodeLength int      `env:"GAME_CODE_LENGTH" envDefault:"6"`
	MaxPlayers     int      `env:"MAX_PLAYERS"      envDefault:"8"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"  envSeparator:","`
}

// Load parses the environment into a validated Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported LOG_FORMAT %q", c.LogFormat)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if _, err := shared.RulesByName(c.GameRules); err != nil {
		return err
	}
	if c.GameCodeLength < 4 {
		return fmt.Errorf("GAME_CODE_LENGTH must be at least 4, got %d", c.GameCodeLength)
	}
	if c.MaxPlayers < 2 {
		return fmt.Errorf("MAX_PLAYERS must be at least 2, got %d", c.MaxPlayers)
	}
	return nil
}

// Rules returns the rules policy named by GAME_RULES.
func (c Config) Rules() shared.Rules {
	rules, err := shared.RulesByName(c.GameRules)
	if err != nil {
		return shared.StandardRules{}
	}
	return rules
}

// NewLogger builds a logger honoring LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger() *logrus.Logger {
	return newLogger(c, os.Stderr)
}

func newLogger(c Config, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
