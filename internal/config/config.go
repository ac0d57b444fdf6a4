// Package config loads the bot's configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all startup configuration. Everything here is opaque to the
// core: it only ever sees the six game fields through game.Settings.
type Config struct {
	Prefix     string `env:"COMMAND_PREFIX" envDefault:"!"`
	GatewayURL string `env:"GATEWAY_URL,required,notEmpty"`
	Token      string `env:"GATEWAY_TOKEN,required,notEmpty"`

	ManagerID              string `env:"GAME_MANAGER_ID,required,notEmpty"`
	LeaderboardChannelID   string `env:"LEADERBOARD_CHANNEL_ID,required,notEmpty"`
	StatusChannelID        string `env:"STATUS_CHANNEL_ID,required,notEmpty"`
	AssassinationChannelID string `env:"ASSASSINATION_CHANNEL_ID,required,notEmpty"`
	DisputeChannelID       string `env:"DISPUTE_CHANNEL_ID,required,notEmpty"`

	VotingDurationSeconds int `env:"VOTING_DURATION_SECONDS" envDefault:"300"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load reads .env when present, then the environment. A missing required
// variable aborts startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.VotingDurationSeconds <= 0 {
		return nil, fmt.Errorf("VOTING_DURATION_SECONDS must be positive, got %d", cfg.VotingDurationSeconds)
	}
	return &cfg, nil
}

// VotingDuration returns the voting window as a duration.
func (c *Config) VotingDuration() time.Duration {
	return time.Duration(c.VotingDurationSeconds) * time.Second
}
