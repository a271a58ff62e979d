package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/config"
	"github.com/agenthands/lossrun/internal/core"
	"github.com/agenthands/lossrun/internal/docsource"
	"github.com/agenthands/lossrun/internal/llm"
	"github.com/agenthands/lossrun/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Could not load %s: %v. Using defaults", cfgPath, err)
		cfg = config.Default()
		cfg.ApplyEnv()
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	client, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		logger.Fatal("failed to initialize llm client", zap.Error(err))
	}

	consolidator := core.NewConsolidator(client, cfg.Pipeline, logger)
	loader := docsource.NewLoader(logger)

	srv := server.NewServer(consolidator, loader, cfg.Server, cfg.Batch, logger)
	r := srv.SetupRouter()

	logger.Info("starting server", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
