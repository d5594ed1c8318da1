package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/libshelf/library-service/internal/domain"
)

// RegisterInput holds the fields required to create an account.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// UpdateProfileInput holds the fields a user may change on their own
// profile. Only non-nil fields are applied.
type UpdateProfileInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Password  *string
}

// UserService is the identity side of the system: registration, profile
// management and credential checks. Token issuance itself lives in the auth
// package; this service only answers "who is this".
type UserService interface {
	// Register creates a new non-staff account with a bcrypt-hashed
	// password. Staff accounts are provisioned out of band.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)

	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)

	UpdateProfile(ctx context.Context, user *domain.User, input UpdateProfileInput) (*domain.User, error)

	// Authenticate checks the credentials and returns the matching user.
	// Unknown email and wrong password both fail with
	// domain.ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}
