package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonesrussell/referer-classifier/internal/bootstrap"
	"github.com/jonesrussell/referer-classifier/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return 1
	}

	log, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := bootstrap.NewHTTPComponents(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to build service", logger.Error(err))
		return 1
	}
	defer func() {
		if components.DB != nil {
			_ = components.DB.Close()
		}
	}()

	log.Info("Referer classifier starting",
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
	)

	if err := components.Server.RunWithGracefulShutdown(ctx); err != nil {
		log.Error("Server exited with error", logger.Error(err))
		return 1
	}

	// Stop accepting events and flush what remains before closing the DB.
	if components.Buffer != nil {
		components.Buffer.Close()
		components.Store.Wait()
	}

	log.Info("Referer classifier stopped")
	return 0
}
