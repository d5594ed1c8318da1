package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/libshelf/library-service/internal/core/ports"
	"github.com/libshelf/library-service/internal/domain"
	"github.com/libshelf/library-service/internal/messaging/payloads"
	"github.com/libshelf/library-service/internal/validator"
)

// borrowingInteractor implements BorrowingService.
type borrowingInteractor struct {
	store     ports.Store
	publisher ports.BorrowingEventPublisher
	logger    *slog.Logger

	// clock is read exactly once per operation so "today" cannot shift
	// between validation and persistence within a single request.
	clock func() time.Time
}

func NewBorrowingService(store ports.Store, publisher ports.BorrowingEventPublisher, logger *slog.Logger, clock func() time.Time) BorrowingService {
	if clock == nil {
		clock = time.Now
	}
	return &borrowingInteractor{
		store:     store,
		publisher: publisher,
		logger:    logger,
		clock:     clock,
	}
}

func (uc *borrowingInteractor) Borrow(ctx context.Context, user *domain.User, input BorrowInput) (*domain.Borrowing, error) {
	today := domain.DateOf(uc.clock())

	v := validator.New()
	v.Check(input.BookID != uuid.Nil, "book_id", "must be provided")
	v.Check(!input.BorrowDate.IsZero(), "borrow_date", "must be provided")
	v.Check(!input.ExpectedReturnDate.IsZero(), "expected_return_date", "must be provided")
	if !v.Valid() {
		return nil, &domain.ValidationError{Fields: v.Errors}
	}

	v.Check(!input.BorrowDate.Before(today), "borrow_date", "cannot be in the past")
	v.Check(!input.ExpectedReturnDate.Before(input.BorrowDate), "expected_return_date", "must be the same or after borrow date")
	if !v.Valid() {
		return nil, &domain.ValidationError{Fields: v.Errors}
	}

	borrowing := &domain.Borrowing{
		ID:                 uuid.New(),
		BookID:             input.BookID,
		UserID:             user.ID,
		BorrowDate:         input.BorrowDate,
		ExpectedReturnDate: input.ExpectedReturnDate,
	}

	// The availability check, the decrement and the borrowing insert live
	// in one transaction. The book row stays locked until commit, so two
	// borrowers racing for the last copy serialize and the loser sees
	// ErrBookUnavailable.
	err := uc.store.Atomic(ctx, func(tx ports.TxStore) error {
		book, err := tx.GetBookForUpdate(ctx, input.BookID)
		if err != nil {
			return err
		}
		if book.Inventory <= 0 {
			return domain.ErrBookUnavailable
		}
		if err := tx.SetBookInventory(ctx, book.ID, book.Inventory-1); err != nil {
			return err
		}
		return tx.CreateBorrowing(ctx, borrowing)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("borrowing created",
		"borrowing_id", borrowing.ID,
		"book_id", borrowing.BookID,
		"user_id", borrowing.UserID,
	)
	uc.publish(ctx, payloads.BorrowingCreated, borrowing)

	return borrowing, nil
}

func (uc *borrowingInteractor) Return(ctx context.Context, user *domain.User, borrowingID uuid.UUID, returnDate domain.Date) (*domain.Borrowing, error) {
	today := domain.DateOf(uc.clock())

	if returnDate.IsZero() {
		return nil, &domain.ValidationError{Fields: map[string]string{
			"actual_return_date": "must be provided",
		}}
	}

	var returned *domain.Borrowing
	err := uc.store.Atomic(ctx, func(tx ports.TxStore) error {
		borrowing, err := tx.GetBorrowingForUpdate(ctx, borrowingID)
		if err != nil {
			return err
		}

		// An ownership mismatch reads the same as a missing record so
		// the response never reveals other users' borrowings.
		if !user.CanReturn(borrowing) {
			return domain.ErrBorrowingNotFound
		}
		if !borrowing.Active() {
			return domain.ErrAlreadyReturned
		}

		v := validator.New()
		v.Check(!returnDate.Before(today), "actual_return_date", "cannot be in the past")
		v.Check(!returnDate.Before(borrowing.BorrowDate), "actual_return_date", "must be the same or after borrow date")
		if !v.Valid() {
			return &domain.ValidationError{Fields: v.Errors}
		}

		if err := tx.CloseBorrowing(ctx, borrowing.ID, returnDate); err != nil {
			return err
		}

		book, err := tx.GetBookForUpdate(ctx, borrowing.BookID)
		if err != nil {
			return err
		}
		if err := tx.SetBookInventory(ctx, book.ID, book.Inventory+1); err != nil {
			return err
		}

		borrowing.ActualReturnDate = &returnDate
		returned = borrowing
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("borrowing returned",
		"borrowing_id", returned.ID,
		"book_id", returned.BookID,
		"user_id", returned.UserID,
	)
	uc.publish(ctx, payloads.BorrowingReturned, returned)

	return returned, nil
}

func (uc *borrowingInteractor) GetBorrowing(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Borrowing, error) {
	borrowing, err := uc.store.GetBorrowingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsStaff && borrowing.UserID != user.ID {
		return nil, domain.ErrBorrowingNotFound
	}
	return borrowing, nil
}

func (uc *borrowingInteractor) ListBorrowings(ctx context.Context, user *domain.User, filter ports.BorrowingFilter) ([]domain.Borrowing, error) {
	if !user.IsStaff {
		filter.UserID = user.ID
	}
	return uc.store.ListBorrowings(ctx, filter)
}

// publish sends a lifecycle event to the queue. Publishing is best effort:
// the borrowing has already committed, so a broker failure is logged and the
// request still succeeds.
func (uc *borrowingInteractor) publish(ctx context.Context, eventType string, b *domain.Borrowing) {
	if uc.publisher == nil {
		return
	}
	payload := payloads.BorrowingEventPayload{
		Type:        eventType,
		BorrowingID: b.ID,
		BookID:      b.BookID,
		UserID:      b.UserID,
		OccurredAt:  uc.clock(),
	}
	if err := uc.publisher.PublishBorrowingEvent(ctx, payload); err != nil {
		uc.logger.Error("failed to publish borrowing event",
			"type", eventType,
			"borrowing_id", b.ID,
			"error", err,
		)
	}
}
