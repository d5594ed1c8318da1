package payloads

import (
	"time"

	"github.com/google/uuid"
)

// Event types carried in BorrowingEventPayload.Type.
const (
	BorrowingCreated  = "borrowing.created"
	BorrowingReturned = "borrowing.returned"
)

// BorrowingEventPayload is the message published to the queue when a
// borrowing is created or returned.
type BorrowingEventPayload struct {
	Type        string    `json:"type"`
	BorrowingID uuid.UUID `json:"borrowing_id"`
	BookID      uuid.UUID `json:"book_id"`
	UserID      uuid.UUID `json:"user_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}
