package main

import (
	"fmt"
	"net/http"
	"os"

	"codeberg.org/mutker/homemon/internal/api"
	"codeberg.org/mutker/homemon/internal/config"
	"codeberg.org/mutker/homemon/internal/logger"
	"codeberg.org/mutker/homemon/internal/storage"
)

var (
	cfg  *config.Config
	repo storage.Repository
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())

	repo, err = storage.NewRepository(storage.Config{DBPath: cfg.Database, ReadOnly: true})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
}

func main() {
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close database")
		}
	}()

	server := api.NewServer(repo)
	if err := server.ListenAndServe(cfg.API.Listen); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("API server failed")
	}
}
