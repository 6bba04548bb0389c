// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jason-s-yu/ludo/service/internal/game"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the server settings read from the environment.
type Config struct {
	Addr     string `env:"LUDO_ADDR" envDefault:":8080"`
	LogLevel string `env:"LUDO_LOG_LEVEL" envDefault:"info"`

	RedisURL     string `env:"LUDO_REDIS_URL"`
	RedisChannel string `env:"LUDO_REDIS_CHANNEL" envDefault:"ludo:events"`

	JWTSecret      string   `env:"LUDO_JWT_SECRET"`
	AllowedOrigins []string `env:"LUDO_ALLOWED_ORIGINS" envSeparator:","`

	TurnTimeoutTicks int           `env:"LUDO_TURN_TIMEOUT_TICKS" envDefault:"20"`
	AwardBonusTicks  int           `env:"LUDO_AWARD_BONUS_TICKS" envDefault:"5"`
	TickInterval     time.Duration `env:"LUDO_TICK_INTERVAL" envDefault:"1s"`
	RollDelay        time.Duration `env:"LUDO_ROLL_DELAY" envDefault:"1100ms"`
	MoveStepDelay    time.Duration `env:"LUDO_MOVE_STEP_DELAY" envDefault:"150ms"`
}

// Load reads an optional .env file, then parses the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.TurnTimeoutTicks <= 0 {
		return fmt.Errorf("LUDO_TURN_TIMEOUT_TICKS must be positive, got %d", c.TurnTimeoutTicks)
	}
	if c.AwardBonusTicks < 0 {
		return fmt.Errorf("LUDO_AWARD_BONUS_TICKS must not be negative, got %d", c.AwardBonusTicks)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("LUDO_TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LUDO_LOG_LEVEL: %w", err)
	}
	return nil
}

// Rules returns the session timing knobs.
func (c Config) Rules() game.Rules {
	return game.Rules{
		TurnTimeoutTicks: c.TurnTimeoutTicks,
		AwardBonusTicks:  c.AwardBonusTicks,
		TickInterval:     c.TickInterval,
		RollDelay:        c.RollDelay,
		MoveStepDelay:    c.MoveStepDelay,
	}
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
