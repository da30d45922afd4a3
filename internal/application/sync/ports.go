package sync

import (
	"context"

	"github.com/storelink/transfer-api/internal/domain/entity"
)

// Outcome classifies a posting attempt against an external system.
type Outcome int

const (
	// OutcomeAck the document was accepted (or was already there).
	OutcomeAck Outcome = iota
	// OutcomeTransient timeout, 5xx, network error; worth retrying.
	OutcomeTransient
	// OutcomeTerminal the external system rejected the document; retrying
	// cannot succeed without operator intervention.
	OutcomeTerminal
)

// Result of one posting attempt. Detail is kept on the event for operators.
type Result struct {
	Outcome Outcome
	Detail  string
}

// Target posts business documents to one external system. Implementations
// must be idempotent per document: re-posting an already-accepted document
// reports OutcomeAck.
type Target interface {
	System() string
	PostGoodsIssue(ctx context.Context, note *entity.GoodsIssueNote) Result
	PostTransferReceipt(ctx context.Context, note *entity.TransferReceiptNote) Result
}

// DocumentSource loads the documents referenced by sync events.
type DocumentSource interface {
	GetGoodsIssue(ctx context.Context, issueNumber int64) (*entity.GoodsIssueNote, error)
	GetTransferReceipt(ctx context.Context, receiptNumber int64) (*entity.TransferReceiptNote, error)
}

// PostingLedger records a confirmed posting on the business document.
type PostingLedger interface {
	MarkPosted(ctx context.Context, documentType string, documentNumber int64, targetSystem string, posted bool) error
}

// Alerter is notified when an event exhausts its retry budget. The document
// itself is never unwound.
type Alerter interface {
	SyncFailedPermanently(ctx context.Context, event *entity.SyncEvent)
}
