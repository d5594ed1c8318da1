package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/libshelf/library-service/internal/handler"
)

// runServer starts the HTTP server and shuts it down gracefully when ctx is
// cancelled.
func (a *App) runServer(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", a.cfg.ServerPort),
		Handler:      a.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("server stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.logger.Info("server stopped")
	return nil
}

func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handler.RequestLogger(a.logger))
	r.Use(middleware.Timeout(a.cfg.RequestTimeout))
	r.Use(a.auth.Authenticate)

	r.NotFound(handler.NotFoundHandler(a.logger))
	r.MethodNotAllowed(handler.MethodNotAllowedHandler(a.logger))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthcheck", handler.Healthcheck(a.logger))

		r.Route("/books", func(r chi.Router) {
			r.Get("/", a.books.List)
			r.Get("/{id}", a.books.Get)

			r.Group(func(r chi.Router) {
				r.Use(a.auth.RequireStaff)
				r.Post("/", a.books.Create)
				r.Put("/{id}", a.books.Update)
				r.Patch("/{id}", a.books.Update)
				r.Delete("/{id}", a.books.Delete)
				r.Post("/{id}/cover", a.books.UploadCover)
			})
		})

		r.Route("/borrowings", func(r chi.Router) {
			r.Use(a.auth.RequireUser)
			r.Post("/", a.borrowings.Create)
			r.Get("/", a.borrowings.List)
			r.Get("/{id}", a.borrowings.Get)
			r.Get("/{id}/return", a.borrowings.ReturnView)
			r.Put("/{id}/return", a.borrowings.Return)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", a.users.Register)
			r.Post("/token", a.users.Token)
			r.Post("/token/refresh", a.users.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(a.auth.RequireUser)
				r.Get("/me", a.users.Me)
				r.Put("/me", a.users.UpdateMe)
			})
		})
	})

	return r
}
