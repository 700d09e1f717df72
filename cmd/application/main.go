package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"madpriser_api/config"
	"madpriser_api/internal/rema/app"
	"madpriser_api/pkg/dbconnect/postgres"
	"madpriser_api/pkg/logger"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logger.NewLogger("[madpriser]")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Log("config file %s not loaded (%v), using defaults", configPath, err)
		cfg = config.DefaultConfig()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connector := postgres.NewPgConnector(&cfg.Postgres)
	server := app.NewRemaServer(connector, cfg, log)
	if err := server.Run(ctx); err != nil {
		log.Errorf("server exited: %v", err)
		os.Exit(1)
	}
}
