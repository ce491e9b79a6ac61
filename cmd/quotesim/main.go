package main

import (
	"os"

	"github.com/apppayai/payflow/internal/server"
	"github.com/apppayai/payflow/pkg/config"
	"github.com/apppayai/payflow/pkg/logger"
)

func main() {
	log := logger.New()

	configPath := os.Getenv("PAYFLOW_CONFIG")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log = logger.NewWithConfig(cfg.Logger)

	srv := server.New(cfg, log)
	srv.Start()
}
