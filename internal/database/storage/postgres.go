// Package storage contains the PostgreSQL implementations of the storage
// ports. Catalog reads and writes go through GORM; users, borrowings and the
// transactional borrow/return path go through sqlx against the same pool.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/domain"
)

// Postgres combines the per-entity stores into the single ports.Store the
// usecases depend on.
type Postgres struct {
	*BookStorage
	*UserStorage
	*BorrowingStorage

	db     *sqlx.DB
	logger *slog.Logger
}

func NewPostgres(db *sqlx.DB, gormDB *gorm.DB, logger *slog.Logger) *Postgres {
	return &Postgres{
		BookStorage:      NewBookStorage(gormDB, logger),
		UserStorage:      NewUserStorage(db, logger),
		BorrowingStorage: NewBorrowingStorage(db, logger),
		db:               db,
		logger:           logger,
	}
}

// Atomic runs fn inside a single database transaction. fn returning an error
// rolls everything back; domain errors pass through unwrapped so callers can
// match them.
func (p *Postgres) Atomic(ctx context.Context, fn func(tx ports.TxStore) error) error {
	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&txStore{tx: txx}); err != nil {
		if rbErr := txx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			p.logger.Error("transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := txx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// txStore implements ports.TxStore over an open sqlx transaction.
type txStore struct {
	tx *sqlx.Tx
}

// bookRow mirrors the books schema for raw sqlx scans inside transactions.
type bookRow struct {
	ID            uuid.UUID `db:"id"`
	Title         string    `db:"title"`
	Author        string    `db:"author"`
	Cover         string    `db:"cover"`
	Inventory     int       `db:"inventory"`
	DailyFee      float64   `db:"daily_fee"`
	CoverImageURL string    `db:"cover_image_url"`
}

func (t *txStore) GetBookForUpdate(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	var row bookRow
	query := `
        SELECT id, title, author, cover, inventory, daily_fee, cover_image_url
        FROM books
        WHERE id = $1
        FOR UPDATE`

	err := t.tx.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("locking book row: %w", err)
	}

	return &domain.Book{
		ID:            row.ID,
		Title:         row.Title,
		Author:        row.Author,
		Cover:         domain.CoverType(row.Cover),
		Inventory:     row.Inventory,
		DailyFee:      row.DailyFee,
		CoverImageURL: row.CoverImageURL,
	}, nil
}

func (t *txStore) SetBookInventory(ctx context.Context, id uuid.UUID, inventory int) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE books SET inventory = $2, updated_at = now() WHERE id = $1`,
		id, inventory,
	)
	if err != nil {
		return fmt.Errorf("updating book inventory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (t *txStore) CreateBorrowing(ctx context.Context, borrowing *domain.Borrowing) error {
	query := `
        INSERT INTO borrowings (id, book_id, user_id, borrow_date, expected_return_date, actual_return_date)
        VALUES ($1, $2, $3, $4, $5, NULL)`

	_, err := t.tx.ExecContext(ctx, query,
		borrowing.ID,
		borrowing.BookID,
		borrowing.UserID,
		borrowing.BorrowDate,
		borrowing.ExpectedReturnDate,
	)
	if err != nil {
		return fmt.Errorf("inserting borrowing: %w", err)
	}
	return nil
}

func (t *txStore) GetBorrowingForUpdate(ctx context.Context, id uuid.UUID) (*domain.Borrowing, error) {
	var row borrowingRow
	err := t.tx.GetContext(ctx, &row, `SELECT * FROM borrowings WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBorrowingNotFound
		}
		return nil, fmt.Errorf("locking borrowing row: %w", err)
	}

	borrowing := row.toDomain()
	return &borrowing, nil
}

func (t *txStore) CloseBorrowing(ctx context.Context, id uuid.UUID, returned domain.Date) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE borrowings SET actual_return_date = $2, updated_at = now() WHERE id = $1 AND actual_return_date IS NULL`,
		id, returned,
	)
	if err != nil {
		return fmt.Errorf("closing borrowing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	// The row is locked by the caller, so zero rows here means the
	// borrowing was already closed.
	if rows == 0 {
		return domain.ErrAlreadyReturned
	}
	return nil
}
