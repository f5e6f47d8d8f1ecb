package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/homemon/internal/bot"
	"codeberg.org/mutker/homemon/internal/config"
	"codeberg.org/mutker/homemon/internal/logger"
	"codeberg.org/mutker/homemon/internal/system"
)

var (
	cfg     *config.Config
	chatBot *bot.Bot
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())

	client := bot.NewAPIClient(cfg.Bot.APIURL)
	sys := system.NewService(system.NewRunner())

	chatBot, err = bot.New(bot.Config{
		Token:          cfg.Bot.Token,
		AllowedChatIDs: cfg.Bot.AllowedChatIDs,
		APIURL:         cfg.Bot.APIURL,
		Services:       cfg.Bot.Services,
	}, client, sys)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize bot")
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := chatBot.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("bot terminated")
	}
	logger.Info().Msg("Exiting...")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
