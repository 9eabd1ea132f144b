// Command marketseg segments fast-food survey respondents and trains a
// gender classifier on their answers.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"marketseg/internal/app"
	"marketseg/internal/config"
	"marketseg/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Default().Fatalf("[ERROR] loading config: %v", err)
	}
	logger := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &app.Runner{Config: cfg, Logger: logger, Out: os.Stdout}
	if _, err := runner.Run(ctx); err != nil {
		stop()
		logger.Fatalf("[ERROR] %v", err)
	}
}
