package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/libshelf/library-service/internal/domain"
)

// respondWithError maps a usecase error to an HTTP status and writes the
// error envelope. Unknown errors become an opaque 500; their details are
// logged, never sent to the client.
func respondWithError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		respondWithJSON(w, http.StatusUnprocessableEntity, envelope{"error": validationErr.Fields}, logger)
		return
	}

	switch {
	case errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrBorrowingNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		respondWithJSON(w, http.StatusNotFound, envelope{"error": err.Error()}, logger)

	case errors.Is(err, domain.ErrBookUnavailable):
		respondWithJSON(w, http.StatusConflict, envelope{"error": err.Error()}, logger)

	case errors.Is(err, domain.ErrAlreadyReturned):
		respondWithJSON(w, http.StatusBadRequest, envelope{"error": err.Error()}, logger)

	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidToken):
		respondWithJSON(w, http.StatusUnauthorized, envelope{"error": err.Error()}, logger)

	default:
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondWithJSON(w, http.StatusInternalServerError, envelope{"error": "the server encountered a problem and could not process your request"}, logger)
	}
}

var (
	errInvalidUserIDFilter   = errors.New("invalid user_id filter: must be a valid UUID")
	errInvalidIsActiveFilter = errors.New("invalid is_active filter: must be true or false")
)

// badRequest reports a malformed request body or parameter.
func badRequest(w http.ResponseWriter, err error, logger *slog.Logger) {
	respondWithJSON(w, http.StatusBadRequest, envelope{"error": err.Error()}, logger)
}

// NotFoundHandler overrides the router's default 404 with a JSON body.
func NotFoundHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusNotFound, envelope{"error": "the requested resource could not be found"}, logger)
	}
}

// MethodNotAllowedHandler overrides the router's default 405 with a JSON body.
func MethodNotAllowedHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusMethodNotAllowed, envelope{"error": "the " + r.Method + " method is not supported for this resource"}, logger)
	}
}
