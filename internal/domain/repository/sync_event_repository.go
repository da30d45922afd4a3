package repository

import (
	"context"
	"time"

	"github.com/storelink/transfer-api/internal/domain/entity"
)

// SyncEventRepository is the durable outbound queue. Claiming uses
// FOR UPDATE SKIP LOCKED so parallel workers never pick the same row, and the
// unique idempotency key (document type, document number, target system)
// guarantees at most one event per key.
type SyncEventRepository interface {
	// Enqueue inserts the event; a duplicate idempotency key is a no-op.
	Enqueue(ctx context.Context, event *entity.SyncEvent) error
	// ClaimDue atomically picks up to limit events that are PENDING or
	// FAILED_RETRYABLE with next_attempt_at due (or IN_FLIGHT with a lock
	// older than staleAfter, i.e. abandoned by a dead worker), marks them
	// IN_FLIGHT for workerID and returns them.
	ClaimDue(ctx context.Context, workerID string, limit int, staleAfter time.Duration) ([]*entity.SyncEvent, error)
	MarkPosted(ctx context.Context, id string) error
	// MarkRetry re-queues the event as FAILED_RETRYABLE with the next attempt
	// time and records the error.
	MarkRetry(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error
	MarkTerminal(ctx context.Context, id string, attempts int, lastError string) error
	// Requeue puts a FAILED_TERMINAL event back to PENDING (operator action).
	Requeue(ctx context.Context, id string) error
	// CancelPending deletes the event only while still PENDING.
	CancelPending(ctx context.Context, id string) error
	ListByStatus(ctx context.Context, status string, limit int) ([]*entity.SyncEvent, error)
}
