package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/domain"
)

// BorrowInput holds the fields required to borrow a book.
type BorrowInput struct {
	BookID             uuid.UUID
	BorrowDate         domain.Date
	ExpectedReturnDate domain.Date
}

// BorrowingService is the borrowing lifecycle engine. It owns the date and
// inventory invariants:
//
//   - a borrowing is created only while the book has inventory left, and the
//     decrement commits together with the borrowing row;
//   - a borrowing closes exactly once, and the increment commits together
//     with the actual return date.
//
// Every operation takes the acting user; a caller can never observe or
// mutate another user's borrowings (staff may list and read everything).
type BorrowingService interface {
	// Borrow validates the dates against a single clock reading, then
	// atomically decrements the book's inventory and records the new
	// active borrowing. Returns domain.ErrBookUnavailable when no copy is
	// left.
	Borrow(ctx context.Context, user *domain.User, input BorrowInput) (*domain.Borrowing, error)

	// Return closes an active borrowing owned by user: sets the actual
	// return date and atomically increments the book's inventory.
	// A borrowing that is already closed fails with
	// domain.ErrAlreadyReturned; one owned by somebody else fails with
	// domain.ErrBorrowingNotFound.
	Return(ctx context.Context, user *domain.User, borrowingID uuid.UUID, returnDate domain.Date) (*domain.Borrowing, error)

	GetBorrowing(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Borrowing, error)

	// ListBorrowings lists borrowings filtered by owner and active state.
	// Non-staff callers only ever see their own borrowings regardless of
	// the filter they pass.
	ListBorrowings(ctx context.Context, user *domain.User, filter ports.BorrowingFilter) ([]domain.Borrowing, error)
}
