package main

import (
	"fmt"

	"github.com/ruizlenato/mediasaver/internal/config"
	"github.com/ruizlenato/mediasaver/internal/database"
	"github.com/ruizlenato/mediasaver/internal/database/cache"
	"github.com/ruizlenato/mediasaver/internal/utils"
)

func initializeServices(cfg *config.Config) error {
	if cfg.UserAgent != "" {
		utils.UserAgent = cfg.UserAgent
	}

	if cfg.DatabaseFile != "" {
		if err := database.Open(cfg.DatabaseFile); err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}

		if err := database.CreateTables(); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	if cfg.RedisAddr != "" {
		if err := cache.RedisClient(cfg.RedisAddr, cfg.RedisPassword, 0); err != nil {
			fmt.Println("\033[0;31mRedis cache is currently unavailable.\033[0m")
		}
	}

	return nil
}
