// Package main is the entry point for the EditorialChain server.
//
// The main package stays minimal:
//  1. read configuration (environment, optional .env file)
//  2. create the logger
//  3. build the server and run it until SIGINT/SIGTERM
//
// All actual logic lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/editorialchain/internal/config"
	"github.com/sakif/editorialchain/internal/server"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Log levels (from least to most severe): debug → info → warn → error.
	// SERVER_LOG_LEVEL picks the minimum.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Server.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if cfg.JWT.Secret == "" {
		logger.Error("JWT_SECRET is required, generate one with: openssl rand -hex 32")
		os.Exit(1)
	}

	// Startup checks (store, Redis, MinIO, OIDC discovery) get one minute.
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	srv, err := server.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
