package domain

import (
	"time"

	"github.com/google/uuid"
)

// CoverType is the physical cover of a book. The values match the ones
// stored in the database.
type CoverType string

const (
	CoverHard CoverType = "HARD"
	CoverSoft CoverType = "SOFT"
)

// Valid reports whether c is one of the known cover types.
func (c CoverType) Valid() bool {
	return c == CoverHard || c == CoverSoft
}

// Book represents a catalogued book, maps to the 'books' table.
// Inventory counts the copies currently available to borrow; copies that are
// out on an active borrowing are not included.
type Book struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	Cover         CoverType `json:"cover" db:"cover"`
	Inventory     int       `json:"inventory" db:"inventory"`
	DailyFee      float64   `json:"daily_fee" db:"daily_fee"`
	CoverImageURL string    `json:"cover_image_url,omitempty" db:"cover_image_url"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}
