package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/domain"
	"github.com/libshelf/library-service/internal/usecase"
)

// BorrowingHandler serves the borrowing lifecycle endpoints. Every route is
// behind RequireUser, so userFromContext never returns nil here.
type BorrowingHandler struct {
	borrowings usecase.BorrowingService
	logger     *slog.Logger
}

func NewBorrowingHandler(borrowings usecase.BorrowingService, logger *slog.Logger) *BorrowingHandler {
	return &BorrowingHandler{borrowings: borrowings, logger: logger}
}

func (h *BorrowingHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var input struct {
		BookID             uuid.UUID   `json:"book_id"`
		BorrowDate         domain.Date `json:"borrow_date"`
		ExpectedReturnDate domain.Date `json:"expected_return_date"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err, h.logger)
		return
	}

	borrowing, err := h.borrowings.Borrow(r.Context(), user, usecase.BorrowInput{
		BookID:             input.BookID,
		BorrowDate:         input.BorrowDate,
		ExpectedReturnDate: input.ExpectedReturnDate,
	})
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, envelope{"borrowing": borrowing}, h.logger)
}

func (h *BorrowingHandler) List(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	qs := r.URL.Query()

	var filter ports.BorrowingFilter
	if raw := qs.Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, errInvalidUserIDFilter, h.logger)
			return
		}
		filter.UserID = id
	}
	if raw := qs.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, errInvalidIsActiveFilter, h.logger)
			return
		}
		filter.IsActive = &active
	}

	borrowings, err := h.borrowings.ListBorrowings(r.Context(), user, filter)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{"borrowings": borrowings}, h.logger)
}

func (h *BorrowingHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	id, err := readUUIDParam(r, "id")
	if err != nil {
		badRequest(w, err, h.logger)
		return
	}

	borrowing, err := h.borrowings.GetBorrowing(r.Context(), user, id)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{"borrowing": borrowing}, h.logger)
}

// ReturnView shows the borrowing a return would close. Owner only: even
// staff cannot view another user's return endpoint.
func (h *BorrowingHandler) ReturnView(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	id, err := readUUIDParam(r, "id")
	if err != nil {
		badRequest(w, err, h.logger)
		return
	}

	borrowing, err := h.borrowings.GetBorrowing(r.Context(), user, id)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}
	if !user.CanReturn(borrowing) {
		respondWithError(w, r, domain.ErrBorrowingNotFound, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{"borrowing": borrowing}, h.logger)
}

// Return closes the borrowing and hands the copy back to the inventory.
func (h *BorrowingHandler) Return(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	id, err := readUUIDParam(r, "id")
	if err != nil {
		badRequest(w, err, h.logger)
		return
	}

	var input struct {
		ActualReturnDate domain.Date `json:"actual_return_date"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err, h.logger)
		return
	}

	borrowing, err := h.borrowings.Return(r.Context(), user, id, input.ActualReturnDate)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{"borrowing": borrowing}, h.logger)
}
