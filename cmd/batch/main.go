package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/agenthands/lossrun/internal/batch"
	"github.com/agenthands/lossrun/internal/config"
	"github.com/agenthands/lossrun/internal/core"
	"github.com/agenthands/lossrun/internal/docsource"
	"github.com/agenthands/lossrun/internal/llm"
)

func main() {
	input := flag.String("input", "", "directory of source documents (overrides config)")
	output := flag.String("output", "", "directory for session artifacts and reports (overrides config)")
	workers := flag.Int("workers", 0, "number of concurrent documents (overrides config)")
	cfgPath := flag.String("config", "config/config.toml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Printf("Could not load %s: %v. Using defaults", *cfgPath, err)
		cfg = config.Default()
		cfg.ApplyEnv()
	}
	if *input != "" {
		cfg.Batch.InputDir = *input
	}
	if *output != "" {
		cfg.Batch.OutputDir = *output
	}
	if *workers > 0 {
		cfg.Batch.Workers = *workers
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

	p := batch.NewProcessor(cfg.Batch, consolidator, loader, logger)
	report, err := p.Run(context.Background())
	if err != nil {
		logger.Fatal("batch run failed", zap.Error(err))
	}

	logger.Info("batch complete",
		zap.Int("total", report.TotalFiles),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	if report.Failed > 0 {
		os.Exit(1)
	}
}
