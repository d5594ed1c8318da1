package handler

import (
	"log/slog"
	"net/http"

	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/domain"
	"github.com/libshelf/library-service/internal/usecase"
)

// Covers are capped at 5 MB.
const maxCoverImageBytes = 5 << 20

// BookHandler serves the catalog endpoints.
type BookHandler struct {
	catalog usecase.CatalogService
	logger  *slog.Logger
}

func NewBookHandler(catalog usecase.CatalogService, logger *slog.Logger) *BookHandler {
	return &BookHandler{catalog: catalog, logger: logger}
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title     string           `json:"title"`
		Author    string           `json:"author"`
		Cover     domain.CoverType `json:"cover"`
		Inventory int              `json:"inventory"`
		DailyFee  float64          `json:"daily_fee"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err, h.logger)
		return
	}

	book, err := h.catalog.CreateBook(r.Context(), usecase.CreateBookInput{
		Title:     input.Title,
		Author:    input.Author,
		Cover:     input.Cover,
		Inventory: input.Inventory,
		DailyFee:  input.DailyFee,
	})
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, envelope{"book": book}, h.logger)
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	filter := ports.BookFilter{
		Title:  qs.Get("title"),
		Author: qs.Get("author"),
		Cover:  domain.CoverType(qs.Get("cover")),
	}

	books, err := h.catalog.ListBooks(r.Context(), filter)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{"books": books}, h.logger)
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := readUUIDParam(r, "id")
	if err != nil {
		badRequest(w, err, h.logger)
		return
	}

	book, err := h.catalog.GetBook(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{"book": book}, h.logger)
}

// Update applies a partial update; it backs both PUT and PATCH.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := readUUIDParam(r, "id")
	if err != nil {
		badRequest(w, err, h.logger)
		return
	}

	var input struct {
		Title     *string           `json:"title"`
		Author    *string           `json:"author"`
		Cover     *domain.CoverType `json:"cover"`
		Inventory *int              `json:"inventory"`
		DailyFee  *float64          `json:"daily_fee"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequest(w, err, h.logger)
		return
	}

	book, err := h.catalog.UpdateBook(r.Context(), id, usecase.UpdateBookInput{
		Title:     input.Title,
		Author:    input.Author,
		Cover:     input.Cover,
		Inventory: input.Inventory,
		DailyFee:  input.DailyFee,
	})
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{"book": book}, h.logger)
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := readUUIDParam(r, "id")
	if err != nil {
		badRequest(w, err, h.logger)
		return
	}

	if err := h.catalog.DeleteBook(r.Context(), id); err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{"message": "book deleted"}, h.logger)
}

// UploadCover stores the request body as the book's cover image.
func (h *BookHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id, err := readUUIDParam(r, "id")
	if err != nil {
		badRequest(w, err, h.logger)
		return
	}

	contentType := r.Header.Get("Content-Type")
	body := http.MaxBytesReader(w, r.Body, maxCoverImageBytes)

	book, err := h.catalog.AttachCoverImage(r.Context(), id, body, contentType)
	if err != nil {
		respondWithError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{"book": book}, h.logger)
}
