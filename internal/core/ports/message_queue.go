package ports

import (
	"context"

	"github.com/libshelf/library-service/internal/messaging/payloads"
)

// BorrowingEventPublisher publishes lifecycle events (borrowing created,
// borrowing returned) to the message queue. Publishing is best effort: the
// usecase logs a failed publish but never fails the request over it.
type BorrowingEventPublisher interface {
	PublishBorrowingEvent(ctx context.Context, payload payloads.BorrowingEventPayload) error
}
