package transfer

import (
	"context"
	"time"

	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/pkg/logger"
)

// writeRoles are the store roles allowed to issue or receive goods.
var writeRoles = []string{entity.RoleAdmin, entity.RoleManager, entity.RoleAssistant}

// Engine orchestrates one logical transfer operation:
// authorize → validate → append to the ledger → enqueue sync. It is the only
// component that calls the ledger's mutating operations. The append is
// committed before the sync event is enqueued; a failed enqueue is logged and
// never rolls back a confirmed document.
type Engine struct {
	ledger    *Ledger
	authority StoreAuthority
	events    EventEnqueuer
	log       *logger.Logger
	now       func() time.Time
}

// NewEngine builds the reconciliation engine. now is injectable for tests;
// pass nil for time.Now.
func NewEngine(ledger *Ledger, authority StoreAuthority, events EventEnqueuer, log *logger.Logger, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{ledger: ledger, authority: authority, events: events, log: log, now: now}
}

// IssueGoods creates a goods issue note against a sales order on behalf of
// userID. Fails ErrNotFound when the order is absent, ErrForbidden when the
// user is not authorized for the order's source store, and ValidationError
// (with the offending line index) for malformed or out-of-bound lines.
func (e *Engine) IssueGoods(ctx context.Context, userID string, orderNumber int64, lines []IssueLine) (*entity.GoodsIssueNote, error) {
	if len(lines) == 0 {
		return nil, domain.NewFieldValidationError("line_items", "at least one line item is required")
	}
	order, err := e.ledger.GetSalesOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	ok, err := e.authority.IsAuthorized(ctx, userID, order.SourceStoreID, writeRoles...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	note, err := e.ledger.AppendGoodsIssue(ctx, orderNumber, lines, userID, e.now())
	if err != nil {
		return nil, err
	}
	// The issue is committed; posting to SAP and ICG happens asynchronously.
	if err := e.events.EnqueueDocumentSync(ctx, entity.DocumentGoodsIssue, note.IssueNumber, entity.TargetSAPByD, entity.TargetICG); err != nil {
		e.log.Warn().Err(err).Int64("issue_number", note.IssueNumber).Msg("enqueue goods issue sync")
	}
	return note, nil
}

// ReceiveGoods creates a transfer receipt note against a goods issue note,
// authorizing the user against the destination store of the parent order.
func (e *Engine) ReceiveGoods(ctx context.Context, userID string, issueNumber int64, lines []ReceiptLine) (*entity.TransferReceiptNote, error) {
	if len(lines) == 0 {
		return nil, domain.NewFieldValidationError("line_items", "at least one line item is required")
	}
	issue, err := e.ledger.GetGoodsIssue(ctx, issueNumber)
	if err != nil {
		return nil, err
	}
	order, err := e.ledger.GetSalesOrder(ctx, issue.OrderNumber)
	if err != nil {
		return nil, err
	}
	ok, err := e.authority.IsAuthorized(ctx, userID, order.DestinationStoreID, writeRoles...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	note, err := e.ledger.AppendTransferReceipt(ctx, issueNumber, lines, userID, order.DestinationStoreID, e.now())
	if err != nil {
		return nil, err
	}
	// ICG gets the inventory increase at the destination; SAP ByD gets the
	// order delivery-status update.
	if err := e.events.EnqueueDocumentSync(ctx, entity.DocumentTransferReceipt, note.ReceiptNumber, entity.TargetICG, entity.TargetSAPByD); err != nil {
		e.log.Warn().Err(err).Int64("receipt_number", note.ReceiptNumber).Msg("enqueue transfer receipt sync")
	}
	return note, nil
}
