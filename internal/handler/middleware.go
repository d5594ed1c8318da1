package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/libshelf/library-service/internal/auth"
	"github.com/libshelf/library-service/internal/domain"
	"github.com/libshelf/library-service/internal/usecase"
)

type contextKey string

const userContextKey contextKey = "currentUser"

// contextWithUser stores the authenticated user on the request context.
func contextWithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// userFromContext returns the authenticated user, or nil for an anonymous
// request.
func userFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// AuthMiddleware authenticates bearer tokens and enforces the access policy:
// catalog mutations need staff, everything else needs an authenticated
// identity, and the return operation additionally checks ownership in the
// usecase layer.
type AuthMiddleware struct {
	tokens *auth.TokenManager
	users  usecase.UserService
	logger *slog.Logger
}

func NewAuthMiddleware(tokens *auth.TokenManager, users usecase.UserService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, logger: logger}
}

// Authenticate resolves the Authorization header into a current user.
// Requests without the header pass through anonymously; a malformed or
// expired token is rejected outright.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			respondWithError(w, r, domain.ErrInvalidToken, m.logger)
			return
		}

		userID, err := m.tokens.ParseAccess(parts[1])
		if err != nil {
			respondWithError(w, r, domain.ErrInvalidToken, m.logger)
			return
		}

		user, err := m.users.GetUser(r.Context(), userID)
		if err != nil {
			respondWithError(w, r, domain.ErrInvalidToken, m.logger)
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithUser(r.Context(), user)))
	})
}

// RequireUser rejects anonymous requests.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFromContext(r.Context()) == nil {
			respondWithJSON(w, http.StatusUnauthorized, envelope{"error": "authentication required"}, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff rejects requests from anyone who may not mutate the catalog.
func (m *AuthMiddleware) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())
		if user == nil {
			respondWithJSON(w, http.StatusUnauthorized, envelope{"error": "authentication required"}, m.logger)
			return
		}
		if !user.CanMutateCatalog() {
			respondWithJSON(w, http.StatusForbidden, envelope{"error": "staff privilege required"}, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs every HTTP request with its status and duration.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
