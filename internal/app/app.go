package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/libshelf/library-service/internal/config"
	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/database/client"
	"github.com/libshelf/library-service/internal/handler"
)

// App ties together every initialized component and owns their lifecycle.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	db        *client.Client
	publisher ports.BorrowingEventPublisher

	books      *handler.BookHandler
	borrowings *handler.BorrowingHandler
	users      *handler.UserHandler
	auth       *handler.AuthMiddleware
}

func NewApp(
	cfg *config.Config,
	logger *slog.Logger,
	db *client.Client,
	publisher ports.BorrowingEventPublisher,
	books *handler.BookHandler,
	borrowings *handler.BorrowingHandler,
	users *handler.UserHandler,
	auth *handler.AuthMiddleware,
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		publisher:  publisher,
		books:      books,
		borrowings: borrowings,
		users:      users,
		auth:       auth,
	}
}

// Run starts the HTTP server and blocks until the context is cancelled or a
// termination signal arrives, then releases every resource.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := a.runServer(ctx)

	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown", "error", closeErr)
	}

	return err
}

// Shutdown closes the database pool and the event publisher.
func (a *App) Shutdown() error {
	if closer, ok := a.publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.Error("closing event publisher", "error", err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}

	return nil
}
