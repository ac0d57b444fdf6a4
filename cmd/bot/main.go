package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assassin/internal/bot"
	"assassin/internal/config"
	"assassin/internal/game"
	"assassin/internal/platform/gateway"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}
	var logger *slog.Logger
	if cfg.LogFormat == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}
	slog.SetDefault(logger)

	logger.Info("starting assassin bot", "prefix", cfg.Prefix, "gateway", cfg.GatewayURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	client, err := gateway.Dial(dialCtx, cfg.GatewayURL, cfg.Token, logger)
	cancel()
	if err != nil {
		logger.Error("gateway connection failed", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	// A fresh process means a fresh game; clear the game channels.
	for _, ch := range []string{
		cfg.LeaderboardChannelID,
		cfg.StatusChannelID,
		cfg.AssassinationChannelID,
		cfg.DisputeChannelID,
	} {
		if err := client.Purge(ctx, ch); err != nil {
			logger.Warn("startup purge failed", "channelId", ch, "error", err)
		}
	}

	session := game.NewSession(client, game.Settings{
		ManagerID:              cfg.ManagerID,
		LeaderboardChannelID:   cfg.LeaderboardChannelID,
		StatusChannelID:        cfg.StatusChannelID,
		AssassinationChannelID: cfg.AssassinationChannelID,
		DisputeChannelID:       cfg.DisputeChannelID,
		VotingDuration:         cfg.VotingDuration(),
	}, logger)

	b := bot.New(client, session, cfg.Prefix, logger)

	logger.Info("bot ready", "botId", client.BotID())
	b.Run(ctx, client.Messages())

	logger.Info("bot stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
