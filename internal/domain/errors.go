package domain

import "errors"

// Sentinel errors returned by the usecase layer. Handlers translate them to
// HTTP statuses; nothing in here is fatal to the process.
var (
	ErrBookNotFound = errors.New("book not found")

	// ErrBorrowingNotFound is also returned when a caller asks for a
	// borrowing owned by somebody else, so the response never reveals
	// whether the record exists.
	ErrBorrowingNotFound = errors.New("borrowing not found")

	ErrUserNotFound = errors.New("user not found")

	// ErrBookUnavailable means the book has no inventory left. The caller
	// may retry once a copy has been returned.
	ErrBookUnavailable = errors.New("book is not available for borrowing")

	// ErrAlreadyReturned guards the terminal state: a closed borrowing can
	// never be returned again.
	ErrAlreadyReturned = errors.New("borrowing has already been returned")

	ErrDuplicateEmail     = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ValidationError carries per-field messages for a request that failed
// validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
