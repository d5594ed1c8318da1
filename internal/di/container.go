package di

import (
	"github.com/libshelf/library-service/internal/adapter/covers"
	"github.com/libshelf/library-service/internal/app"
	"github.com/libshelf/library-service/internal/auth"
	"github.com/libshelf/library-service/internal/config"
	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/database/client"
	"github.com/libshelf/library-service/internal/database/storage"
	"github.com/libshelf/library-service/internal/events"
	"github.com/libshelf/library-service/internal/handler"
	"github.com/libshelf/library-service/internal/logger"
	"github.com/libshelf/library-service/internal/usecase"
)

// BuildApp initializes every dependency and returns the assembled App.
func BuildApp() (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}

	store := storage.NewPostgres(dbClient.DB, dbClient.Gorm, slogger)

	var fileStorage ports.FileStorage
	if cfg.Covers.Endpoint != "" {
		fileStorage, err = covers.NewClient(cfg, slogger)
		if err != nil {
			return nil, err
		}
	}

	var publisher ports.BorrowingEventPublisher = events.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		publisher, err = events.NewPublisher(cfg, slogger)
		if err != nil {
			return nil, err
		}
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	catalogService := usecase.NewCatalogService(store, fileStorage, slogger)
	borrowingService := usecase.NewBorrowingService(store, publisher, slogger, nil)
	userService := usecase.NewUserService(store, slogger)

	bookHandler := handler.NewBookHandler(catalogService, slogger)
	borrowingHandler := handler.NewBorrowingHandler(borrowingService, slogger)
	userHandler := handler.NewUserHandler(userService, tokens, slogger)
	authMiddleware := handler.NewAuthMiddleware(tokens, userService, slogger)

	slogger.Info("dependencies initialized")

	return app.NewApp(
		cfg,
		slogger,
		dbClient,
		publisher,
		bookHandler,
		borrowingHandler,
		userHandler,
		authMiddleware,
	), nil
}
