package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/domain"
)

var pg = goqu.Dialect("postgres")

// BorrowingStorage implements ports.BorrowingStore with sqlx; list queries
// are built with goqu so the optional filters compose cleanly.
type BorrowingStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewBorrowingStorage(db *sqlx.DB, logger *slog.Logger) *BorrowingStorage {
	return &BorrowingStorage{db: db, logger: logger}
}

// borrowingRow is the database shape of a borrowing. actual_return_date is
// nullable, so the row type differs from the domain type.
type borrowingRow struct {
	ID                 uuid.UUID    `db:"id"`
	BookID             uuid.UUID    `db:"book_id"`
	UserID             uuid.UUID    `db:"user_id"`
	BorrowDate         time.Time    `db:"borrow_date"`
	ExpectedReturnDate time.Time    `db:"expected_return_date"`
	ActualReturnDate   sql.NullTime `db:"actual_return_date"`
	CreatedAt          time.Time    `db:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

func (r borrowingRow) toDomain() domain.Borrowing {
	b := domain.Borrowing{
		ID:                 r.ID,
		BookID:             r.BookID,
		UserID:             r.UserID,
		BorrowDate:         domain.DateOf(r.BorrowDate),
		ExpectedReturnDate: domain.DateOf(r.ExpectedReturnDate),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.ActualReturnDate.Valid {
		d := domain.DateOf(r.ActualReturnDate.Time)
		b.ActualReturnDate = &d
	}
	return b
}

func (s *BorrowingStorage) GetBorrowingByID(ctx context.Context, id uuid.UUID) (*domain.Borrowing, error) {
	var row borrowingRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM borrowings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBorrowingNotFound
		}
		return nil, fmt.Errorf("selecting borrowing by id: %w", err)
	}

	borrowing := row.toDomain()
	return &borrowing, nil
}

func (s *BorrowingStorage) ListBorrowings(ctx context.Context, filter ports.BorrowingFilter) ([]domain.Borrowing, error) {
	ds := pg.From("borrowings").
		Select("id", "book_id", "user_id", "borrow_date", "expected_return_date", "actual_return_date", "created_at", "updated_at").
		Order(goqu.I("created_at").Desc())

	if filter.UserID != uuid.Nil {
		ds = ds.Where(goqu.C("user_id").Eq(filter.UserID.String()))
	}
	if filter.IsActive != nil {
		if *filter.IsActive {
			ds = ds.Where(goqu.C("actual_return_date").IsNull())
		} else {
			ds = ds.Where(goqu.C("actual_return_date").IsNotNull())
		}
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building borrowings query: %w", err)
	}

	var rows []borrowingRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing borrowings: %w", err)
	}

	borrowings := make([]domain.Borrowing, 0, len(rows))
	for _, row := range rows {
		borrowings = append(borrowings, row.toDomain())
	}
	return borrowings, nil
}
