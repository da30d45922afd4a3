package entity

import (
	"strconv"
	"time"
)

// Document types carried by sync events.
const (
	DocumentGoodsIssue      = "GOODS_ISSUE"
	DocumentTransferReceipt = "TRANSFER_RECEIPT"
)

// Target systems for outbound posting.
const (
	TargetSAPByD = "SAP_BYD"
	TargetICG    = "ICG"
)

// Sync event states. PENDING → IN_FLIGHT → {POSTED | FAILED_RETRYABLE → PENDING
// (after backoff) | FAILED_TERMINAL}. FAILED_TERMINAL events are kept and
// surfaced to operators; they never unwind the committed business document.
const (
	SyncPending         = "PENDING"
	SyncInFlight        = "IN_FLIGHT"
	SyncPosted          = "POSTED"
	SyncFailedRetryable = "FAILED_RETRYABLE"
	SyncFailedTerminal  = "FAILED_TERMINAL"
)

// SyncEvent is one unit of work on the durable outbound queue. The triple
// (DocumentType, DocumentNumber, TargetSystem) is the idempotency key: at most
// one event per key ever exists, so retried enqueues and concurrent deliveries
// cannot double-post an inventory movement.
type SyncEvent struct {
	ID             string
	DocumentType   string
	DocumentNumber int64
	TargetSystem   string
	Status         string
	Attempts       int
	NextAttemptAt  time.Time
	LastError      string
	LockedBy       string
	LockedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Key returns the idempotency key as a printable string (for logs).
func (e SyncEvent) Key() string {
	return e.DocumentType + "/" + strconv.FormatInt(e.DocumentNumber, 10) + "/" + e.TargetSystem
}
