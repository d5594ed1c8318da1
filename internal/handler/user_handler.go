package handler

import (
	"log/slog"
	"net/http"

	"github.com/libshelf/library-service/internal/auth"
	"github.com/libshelf/library-service/internal/domain"
	"github.com/libshelf/library-service/internal/usecase"
)

// UserHandler serves registration, profile and token endpoints.
type UserHandler struct {
	users  usecase.UserService
	tokens *auth.TokenManager
	logger *slog.Logger
}

func NewUserHandler(users usecase.UserService, tokens *auth.TokenManager, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, logger: logger}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Password  string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err, h.logger)
		return
	}

	user, err := h.users.Register(r.Context(), usecase.RegisterInput{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  input.Password,
	})
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, envelope{"user": user}, h.logger)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	respondWithJSON(w, http.StatusOK, envelope{"user": user}, h.logger)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var input struct {
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Password  *string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err, h.logger)
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user, usecase.UpdateProfileInput{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  input.Password,
	})
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{"user": updated}, h.logger)
}

// Token exchanges credentials for an access/refresh token pair.
func (h *UserHandler) Token(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err, h.logger)
		return
	}

	user, err := h.users.Authenticate(r.Context(), input.Email, input.Password)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{"access": pair.Access, "refresh": pair.Refresh}, h.logger)
}

// Refresh exchanges a valid refresh token for a fresh access token. The user
// must still exist; deleted accounts stop refreshing immediately.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Refresh string `json:"refresh"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err, h.logger)
		return
	}

	userID, err := h.tokens.ParseRefresh(input.Refresh)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		respondWithError(w, r, domain.ErrInvalidToken, h.logger)
		return
	}

	access, err := h.tokens.IssueAccess(user.ID)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{"access": access}, h.logger)
}
