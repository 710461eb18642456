package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"horizonscan/internal/app"
	"horizonscan/internal/config"
	"horizonscan/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if len(os.Args) > 1 {
		// scan URLs given on the command line win over config/env
		cfg.Scan.URLs = config.ParseURLList(os.Args[1])
	}
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}

	err = application.Run(ctx)
	application.Close()
	if err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
