package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/libshelf/library-service/internal/di"
)

func main() {
	// bootstrap logger, used only until the configured logger exists
	bootstrapLogger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	bootstrapLogger.Info("starting application")

	application, err := di.BuildApp()
	if err != nil {
		bootstrapLogger.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		bootstrapLogger.Error("application run failed", "error", err)
		os.Exit(1)
	}

	bootstrapLogger.Info("application stopped gracefully")
}
