package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/domain"
)

// BookStorage implements ports.BookStore on top of GORM.
type BookStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewBookStorage(db *gorm.DB, logger *slog.Logger) *BookStorage {
	return &BookStorage{db: db, logger: logger}
}

func (s *BookStorage) CreateBook(ctx context.Context, book *domain.Book) error {
	result := s.db.WithContext(ctx).Create(book)
	if result.Error != nil {
		return fmt.Errorf("inserting book: %w", result.Error)
	}
	return nil
}

func (s *BookStorage) GetBookByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	var book domain.Book
	result := s.db.WithContext(ctx).First(&book, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("selecting book by id: %w", result.Error)
	}
	return &book, nil
}

func (s *BookStorage) ListBooks(ctx context.Context, filter ports.BookFilter) ([]domain.Book, error) {
	q := s.db.WithContext(ctx).Model(&domain.Book{})

	if filter.Title != "" {
		q = q.Where("title ILIKE ?", "%"+filter.Title+"%")
	}
	if filter.Author != "" {
		q = q.Where("author ILIKE ?", "%"+filter.Author+"%")
	}
	if filter.Cover != "" {
		q = q.Where("cover = ?", filter.Cover)
	}

	var books []domain.Book
	result := q.Order("title ASC").Find(&books)
	if result.Error != nil {
		return nil, fmt.Errorf("listing books: %w", result.Error)
	}
	return books, nil
}

func (s *BookStorage) UpdateBook(ctx context.Context, book *domain.Book) error {
	result := s.db.WithContext(ctx).Model(&domain.Book{ID: book.ID}).
		Updates(map[string]any{
			"title":           book.Title,
			"author":          book.Author,
			"cover":           book.Cover,
			"inventory":       book.Inventory,
			"daily_fee":       book.DailyFee,
			"cover_image_url": book.CoverImageURL,
		})
	if result.Error != nil {
		return fmt.Errorf("updating book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (s *BookStorage) DeleteBook(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&domain.Book{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrBookNotFound
	}
	s.logger.Info("book deleted from catalog", "book_id", id)
	return nil
}
