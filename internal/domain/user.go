package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account, maps to the 'users' table.
// Staff users may mutate the catalog; everyone else can only read it.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsStaff      bool      `json:"is_staff" db:"is_staff"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// CanMutateCatalog reports whether the user may create, update or delete
// books.
func (u *User) CanMutateCatalog() bool {
	return u != nil && u.IsStaff
}

// CanReturn reports whether the user may return the given borrowing.
// Only the owner of a borrowing may return it.
func (u *User) CanReturn(b *Borrowing) bool {
	return u != nil && b != nil && u.ID == b.UserID
}
