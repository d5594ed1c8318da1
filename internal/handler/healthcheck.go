package handler

import (
	"log/slog"
	"net/http"
)

// Healthcheck reports whether the service is up and able to answer.
func Healthcheck(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, envelope{"status": "available"}, logger)
	}
}
