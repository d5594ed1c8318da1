package domain

import (
	"time"

	"github.com/google/uuid"
)

// Borrowing records one copy of a book being taken out by a user,
// maps to the 'borrowings' table. A borrowing with no actual return date is
// active; once the actual return date is set the borrowing is closed and can
// never change again.
type Borrowing struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	BookID             uuid.UUID `json:"book_id" db:"book_id"`
	UserID             uuid.UUID `json:"user_id" db:"user_id"`
	BorrowDate         Date      `json:"borrow_date" db:"borrow_date"`
	ExpectedReturnDate Date      `json:"expected_return_date" db:"expected_return_date"`
	ActualReturnDate   *Date     `json:"actual_return_date" db:"actual_return_date"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

func (Borrowing) TableName() string {
	return "borrowings"
}

// Active reports whether the book is still out.
func (b *Borrowing) Active() bool {
	return b.ActualReturnDate == nil
}
