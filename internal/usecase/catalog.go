package usecase

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/libshelf/library-service/internal/domain"
	"github.com/libshelf/library-service/internal/core/ports"
)

// CreateBookInput holds the fields required to add a book to the catalog.
type CreateBookInput struct {
	Title     string
	Author    string
	Cover     domain.CoverType
	Inventory int
	DailyFee  float64
}

// UpdateBookInput holds the fields a caller may change on a book. Pointer
// fields distinguish "not provided" from "set to the zero value"; only
// non-nil fields are applied.
type UpdateBookInput struct {
	Title     *string
	Author    *string
	Cover     *domain.CoverType
	Inventory *int
	DailyFee  *float64
}

// CatalogService is the business logic around the book catalog. Inventory
// set through UpdateBook is an administrative correction; the borrowing
// engine treats whatever value is stored as the source of truth for
// availability.
type CatalogService interface {
	// CreateBook validates and stores a new book. A book enters the
	// catalog with at least one copy and a positive daily fee.
	CreateBook(ctx context.Context, input CreateBookInput) (*domain.Book, error)

	GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error)

	ListBooks(ctx context.Context, filter ports.BookFilter) ([]domain.Book, error)

	// UpdateBook applies a partial update. Unlike creation, inventory may
	// be corrected down to zero.
	UpdateBook(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*domain.Book, error)

	DeleteBook(ctx context.Context, id uuid.UUID) error

	// AttachCoverImage uploads a cover image to file storage and records
	// its URL on the book.
	AttachCoverImage(ctx context.Context, id uuid.UUID, reader io.Reader, contentType string) (*domain.Book, error)
}
