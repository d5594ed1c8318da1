package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/libshelf/library-service/internal/auth"
	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/domain"
	"github.com/libshelf/library-service/internal/validator"
)

// Passwords shorter than this are rejected at registration and on password
// change.
const minPasswordLength = 5

// userInteractor implements UserService.
type userInteractor struct {
	users  ports.UserStore
	logger *slog.Logger
}

func NewUserService(users ports.UserStore, logger *slog.Logger) UserService {
	return &userInteractor{
		users:  users,
		logger: logger,
	}
}

func (uc *userInteractor) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	v := validator.New()
	validateEmail(v, input.Email)
	validatePassword(v, input.Password)
	if !v.Valid() {
		return nil, &domain.ValidationError{Fields: v.Errors}
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		IsStaff:      false,
	}

	if err := uc.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, &domain.ValidationError{Fields: map[string]string{
				"email": "a user with this email address already exists",
			}}
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	uc.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (uc *userInteractor) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.users.GetUserByID(ctx, id)
}

func (uc *userInteractor) UpdateProfile(ctx context.Context, user *domain.User, input UpdateProfileInput) (*domain.User, error) {
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}

	v := validator.New()
	validateEmail(v, user.Email)
	if input.Password != nil {
		validatePassword(v, *input.Password)
	}
	if !v.Valid() {
		return nil, &domain.ValidationError{Fields: v.Errors}
	}

	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := uc.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, &domain.ValidationError{Fields: map[string]string{
				"email": "a user with this email address already exists",
			}}
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}

	uc.logger.Info("profile updated", "user_id", user.ID)
	return user, nil
}

func (uc *userInteractor) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func validateEmail(v *validator.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(validator.Matches(email, validator.EmailRX), "email", "must be a valid email address")
}

func validatePassword(v *validator.Validator, password string) {
	v.Check(len(password) >= minPasswordLength, "password", fmt.Sprintf("must be at least %d characters long", minPasswordLength))
	v.Check(len(password) <= 72, "password", "must not be more than 72 characters long")
}
