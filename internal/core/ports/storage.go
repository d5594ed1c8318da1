package ports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/libshelf/library-service/internal/domain"
)

// BookFilter narrows a catalog listing. Zero values mean "no filter".
type BookFilter struct {
	Title  string
	Author string
	Cover  domain.CoverType
}

// BorrowingFilter narrows a borrowings listing. IsActive is a tri-state:
// nil means both active and closed borrowings.
type BorrowingFilter struct {
	UserID   uuid.UUID
	IsActive *bool
}

// BookStore defines catalog persistence.
type BookStore interface {
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBookByID(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	ListBooks(ctx context.Context, filter BookFilter) ([]domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

// BorrowingStore defines read access to borrowings outside a transaction.
// All borrowing mutations go through TxStore so that the inventory change and
// the borrowing write always commit together.
type BorrowingStore interface {
	GetBorrowingByID(ctx context.Context, id uuid.UUID) (*domain.Borrowing, error)
	ListBorrowings(ctx context.Context, filter BorrowingFilter) ([]domain.Borrowing, error)
}

// UserStore defines user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

// TxStore is the view of storage available inside an atomic unit of work.
// GetBookForUpdate and GetBorrowingForUpdate lock the row for the rest of the
// transaction, so concurrent borrow attempts on the last copy serialize and
// inventory can never go negative.
type TxStore interface {
	GetBookForUpdate(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	SetBookInventory(ctx context.Context, id uuid.UUID, inventory int) error
	CreateBorrowing(ctx context.Context, borrowing *domain.Borrowing) error
	GetBorrowingForUpdate(ctx context.Context, id uuid.UUID) (*domain.Borrowing, error)
	CloseBorrowing(ctx context.Context, id uuid.UUID, returned domain.Date) error
}

// Store is the full persistence collaborator injected into the usecases.
// Atomic runs fn in a single transaction; if fn returns an error nothing it
// did is observable.
type Store interface {
	BookStore
	BorrowingStore
	UserStore
	Atomic(ctx context.Context, fn func(tx TxStore) error) error
}

// FileStorage stores binary objects (book cover images) in an S3-compatible
// bucket and returns a public URL for the stored object.
type FileStorage interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}
