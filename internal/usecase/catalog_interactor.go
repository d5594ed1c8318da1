package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/domain"
	"github.com/libshelf/library-service/internal/validator"
)

// errNoCoverStorage is returned when cover uploads are requested but no
// object storage endpoint was configured.
var errNoCoverStorage = errors.New("cover image storage is not configured")

// catalogInteractor implements CatalogService.
type catalogInteractor struct {
	books  ports.BookStore
	files  ports.FileStorage
	logger *slog.Logger
}

func NewCatalogService(books ports.BookStore, files ports.FileStorage, logger *slog.Logger) CatalogService {
	return &catalogInteractor{
		books:  books,
		files:  files,
		logger: logger,
	}
}

func (uc *catalogInteractor) CreateBook(ctx context.Context, input CreateBookInput) (*domain.Book, error) {
	v := validator.New()
	validateBookFields(v, input.Title, input.Author, input.Cover, input.DailyFee)
	v.Check(input.Inventory >= 1, "inventory", "must be at least 1")
	if !v.Valid() {
		return nil, &domain.ValidationError{Fields: v.Errors}
	}

	book := &domain.Book{
		ID:        uuid.New(),
		Title:     input.Title,
		Author:    input.Author,
		Cover:     input.Cover,
		Inventory: input.Inventory,
		DailyFee:  input.DailyFee,
	}

	if err := uc.books.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("creating book: %w", err)
	}

	uc.logger.Info("book created", "book_id", book.ID, "title", book.Title)
	return book, nil
}

func (uc *catalogInteractor) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	return uc.books.GetBookByID(ctx, id)
}

func (uc *catalogInteractor) ListBooks(ctx context.Context, filter ports.BookFilter) ([]domain.Book, error) {
	if filter.Cover != "" && !filter.Cover.Valid() {
		return nil, &domain.ValidationError{Fields: map[string]string{
			"cover": "must be either HARD or SOFT",
		}}
	}
	return uc.books.ListBooks(ctx, filter)
}

func (uc *catalogInteractor) UpdateBook(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*domain.Book, error) {
	book, err := uc.books.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.Cover != nil {
		book.Cover = *input.Cover
	}
	if input.Inventory != nil {
		book.Inventory = *input.Inventory
	}
	if input.DailyFee != nil {
		book.DailyFee = *input.DailyFee
	}

	v := validator.New()
	validateBookFields(v, book.Title, book.Author, book.Cover, book.DailyFee)
	// Administrative corrections may zero the inventory out, they just
	// cannot make it negative.
	v.Check(book.Inventory >= 0, "inventory", "must not be negative")
	if !v.Valid() {
		return nil, &domain.ValidationError{Fields: v.Errors}
	}

	if err := uc.books.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("updating book: %w", err)
	}

	uc.logger.Info("book updated", "book_id", book.ID)
	return book, nil
}

func (uc *catalogInteractor) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if err := uc.books.DeleteBook(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("book deleted", "book_id", id)
	return nil
}

func (uc *catalogInteractor) AttachCoverImage(ctx context.Context, id uuid.UUID, reader io.Reader, contentType string) (*domain.Book, error) {
	if uc.files == nil {
		return nil, errNoCoverStorage
	}

	book, err := uc.books.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := "covers/" + id.String()
	url, err := uc.files.UploadFile(ctx, key, reader, contentType)
	if err != nil {
		return nil, fmt.Errorf("uploading cover image: %w", err)
	}

	book.CoverImageURL = url
	if err := uc.books.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("saving cover image url: %w", err)
	}

	uc.logger.Info("cover image attached", "book_id", book.ID, "url", url)
	return book, nil
}

// validateBookFields checks the fields shared by create and update.
func validateBookFields(v *validator.Validator, title, author string, cover domain.CoverType, dailyFee float64) {
	v.Check(title != "", "title", "must be provided")
	v.Check(len(title) <= 255, "title", "must not be more than 255 characters")
	v.Check(author != "", "author", "must be provided")
	v.Check(len(author) <= 255, "author", "must not be more than 255 characters")
	v.Check(cover.Valid(), "cover", "must be either HARD or SOFT")
	v.Check(dailyFee >= 0.01, "daily_fee", "must be at least 0.01")
}
