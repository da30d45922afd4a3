package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
	domtransfer "github.com/storelink/transfer-api/internal/domain/transfer"
)

const (
	// maxIssuesPerOrder caps the number of goods issue notes per sales order.
	maxIssuesPerOrder = 10
	// conflictRetries bounds internal retries when the database aborts an
	// append with a serialization failure before surfacing ErrConflict.
	conflictRetries = 3
)

// Ledger owns the three linked transfer documents and enforces the quantity
// chain issued ≤ ordered and received ≤ issued. Every append runs inside one
// transaction with the parent document row locked, so no reader ever observes
// a child total exceeding its parent bound.
type Ledger struct {
	txRunner    TxRunner
	orderRepo   repository.SalesOrderRepository
	issueRepo   repository.GoodsIssueRepository
	receiptRepo repository.TransferReceiptRepository
}

// NewLedger builds the document ledger. The plain repositories serve
// non-transactional reads; all writes go through txRunner.
func NewLedger(
	txRunner TxRunner,
	orderRepo repository.SalesOrderRepository,
	issueRepo repository.GoodsIssueRepository,
	receiptRepo repository.TransferReceiptRepository,
) *Ledger {
	return &Ledger{
		txRunner:    txRunner,
		orderRepo:   orderRepo,
		issueRepo:   issueRepo,
		receiptRepo: receiptRepo,
	}
}

// IssueLine is one requested issue against a sales order line.
type IssueLine struct {
	OrderLineObjectID string
	Quantity          decimal.Decimal
}

// ReceiptLine is one requested receipt against a goods issue line.
type ReceiptLine struct {
	IssueLineID string
	Quantity    decimal.Decimal
}

// GetSalesOrder loads an order with line items by its ERP order number.
func (l *Ledger) GetSalesOrder(ctx context.Context, orderNumber int64) (*entity.SalesOrder, error) {
	return l.orderRepo.GetByOrderNumber(ctx, orderNumber)
}

// ListSalesOrders returns orders touching the given stores, newest first.
func (l *Ledger) ListSalesOrders(ctx context.Context, storeIDs []string) ([]*entity.SalesOrder, error) {
	return l.orderRepo.ListByStores(ctx, storeIDs)
}

// GetGoodsIssue loads an issue note with line items by issue number.
func (l *Ledger) GetGoodsIssue(ctx context.Context, issueNumber int64) (*entity.GoodsIssueNote, error) {
	return l.issueRepo.GetByIssueNumber(ctx, issueNumber)
}

// GetTransferReceipt loads a receipt note with line items by receipt number.
func (l *Ledger) GetTransferReceipt(ctx context.Context, receiptNumber int64) (*entity.TransferReceiptNote, error) {
	return l.receiptRepo.GetByReceiptNumber(ctx, receiptNumber)
}

// AppendGoodsIssue atomically validates the requested lines against the
// outstanding quantities, allocates the next issue number, persists the note
// and increments the parent line issued quantities, then recomputes the
// order's delivery status. All-or-nothing: the first invalid line aborts the
// whole request with its index and no number is allocated.
func (l *Ledger) AppendGoodsIssue(ctx context.Context, orderNumber int64, lines []IssueLine, actorID string, now time.Time) (*entity.GoodsIssueNote, error) {
	var note *entity.GoodsIssueNote
	err := l.withConflictRetry(ctx, func() error {
		return l.txRunner.Run(ctx, func(
			orderRepo repository.SalesOrderRepository,
			issueRepo repository.GoodsIssueRepository,
			_ repository.TransferReceiptRepository,
		) error {
			order, err := orderRepo.GetByOrderNumberForUpdate(ctx, orderNumber)
			if err != nil {
				return err
			}
			if order.DeliveryStatus == entity.DeliveryCompleted {
				return domain.NewValidationError("sales order is completely delivered")
			}
			issued, err := orderRepo.CountGoodsIssues(ctx, order.ID)
			if err != nil {
				return err
			}
			if issued >= maxIssuesPerOrder {
				return domain.NewValidationError(fmt.Sprintf("maximum number of goods issues (%d) reached for this sales order", maxIssuesPerOrder))
			}

			// Validate in submitted order, accumulating per target line so two
			// request lines against the same order line count together.
			requested := make(map[string]decimal.Decimal, len(lines))
			for i, line := range lines {
				li := order.LineItem(line.OrderLineObjectID)
				if li == nil {
					return domain.NewLineValidationError(i+1, "sales_order_line_object_id", "line item does not belong to the sales order")
				}
				if !domtransfer.ValidQuantity(line.Quantity) {
					return domain.NewLineValidationError(i+1, "quantity_issued", "quantity must be greater than 0 with at most 3 decimal places")
				}
				total := requested[li.ID].Add(line.Quantity)
				if total.GreaterThan(li.Outstanding()) {
					return domain.NewLineValidationError(i+1, "quantity_issued",
						fmt.Sprintf("cannot issue %s, available quantity: %s", line.Quantity.String(), li.Outstanding().Sub(requested[li.ID]).String()))
				}
				requested[li.ID] = total
			}

			number, err := issueRepo.NextIssueNumber(ctx)
			if err != nil {
				return err
			}
			note = &entity.GoodsIssueNote{
				ID:            uuid.New().String(),
				IssueNumber:   number,
				SalesOrderID:  order.ID,
				OrderNumber:   order.OrderNumber,
				SourceStoreID: order.SourceStoreID,
				CreatedBy:     actorID,
				CreatedAt:     now,
			}
			for _, line := range lines {
				li := order.LineItem(line.OrderLineObjectID)
				note.LineItems = append(note.LineItems, entity.GoodsIssueLineItem{
					ID:              uuid.New().String(),
					GoodsIssueID:    note.ID,
					OrderLineID:     li.ID,
					OrderLineObject: li.ObjectID,
					ProductID:       li.ProductID,
					ProductName:     li.ProductName,
					QuantityIssued:  line.Quantity,
					UnitPrice:       li.UnitPrice,
					ValueIssued:     domtransfer.LineValue(line.Quantity, li.UnitPrice),
					ReceivedQty:     decimal.Zero,
				})
			}
			if err := issueRepo.Create(ctx, note); err != nil {
				return err
			}
			for lineID, delta := range requested {
				if err := orderRepo.AddIssuedQuantity(ctx, lineID, delta); err != nil {
					return err
				}
				li := lineByID(order, lineID)
				li.IssuedQty = li.IssuedQty.Add(delta)
			}
			status := domtransfer.DeriveDeliveryStatus(order.LineItems)
			if status != order.DeliveryStatus {
				if err := orderRepo.SetDeliveryStatus(ctx, order.ID, status); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// AppendTransferReceipt is the receipt-side mirror of AppendGoodsIssue,
// bounded by each issue line's receivable quantity (issued − received).
func (l *Ledger) AppendTransferReceipt(ctx context.Context, issueNumber int64, lines []ReceiptLine, actorID, destinationStoreID string, now time.Time) (*entity.TransferReceiptNote, error) {
	var note *entity.TransferReceiptNote
	err := l.withConflictRetry(ctx, func() error {
		return l.txRunner.Run(ctx, func(
			_ repository.SalesOrderRepository,
			issueRepo repository.GoodsIssueRepository,
			receiptRepo repository.TransferReceiptRepository,
		) error {
			issue, err := issueRepo.GetByIssueNumberForUpdate(ctx, issueNumber)
			if err != nil {
				return err
			}

			requested := make(map[string]decimal.Decimal, len(lines))
			for i, line := range lines {
				li := issue.LineItem(line.IssueLineID)
				if li == nil {
					return domain.NewLineValidationError(i+1, "goods_issue_line_id", "line item does not belong to the goods issue")
				}
				if !domtransfer.ValidQuantity(line.Quantity) {
					return domain.NewLineValidationError(i+1, "quantity_received", "quantity must be greater than 0 with at most 3 decimal places")
				}
				total := requested[li.ID].Add(line.Quantity)
				if total.GreaterThan(li.Receivable()) {
					return domain.NewLineValidationError(i+1, "quantity_received",
						fmt.Sprintf("cannot receive %s, available quantity: %s", line.Quantity.String(), li.Receivable().Sub(requested[li.ID]).String()))
				}
				requested[li.ID] = total
			}

			number, err := receiptRepo.NextReceiptNumber(ctx)
			if err != nil {
				return err
			}
			note = &entity.TransferReceiptNote{
				ID:                 uuid.New().String(),
				ReceiptNumber:      number,
				GoodsIssueID:       issue.ID,
				IssueNumber:        issue.IssueNumber,
				DestinationStoreID: destinationStoreID,
				CreatedBy:          actorID,
				CreatedAt:          now,
			}
			for _, line := range lines {
				li := issue.LineItem(line.IssueLineID)
				note.LineItems = append(note.LineItems, entity.TransferReceiptLineItem{
					ID:                uuid.New().String(),
					TransferReceiptID: note.ID,
					IssueLineID:       li.ID,
					ProductID:         li.ProductID,
					ProductName:       li.ProductName,
					QuantityReceived:  line.Quantity,
					UnitPrice:         li.UnitPrice,
					ValueReceived:     domtransfer.LineValue(line.Quantity, li.UnitPrice),
				})
			}
			if err := receiptRepo.Create(ctx, note); err != nil {
				return err
			}
			for lineID, delta := range requested {
				if err := issueRepo.AddReceivedQuantity(ctx, lineID, delta); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// MarkPosted flips a document's posted_to_* flag. Posting status is
// eventually-consistent metadata: failures here never gate the workflow.
func (l *Ledger) MarkPosted(ctx context.Context, documentType string, documentNumber int64, system string, posted bool) error {
	switch documentType {
	case entity.DocumentGoodsIssue:
		return l.issueRepo.SetPosted(ctx, documentNumber, system, posted)
	case entity.DocumentTransferReceipt:
		return l.receiptRepo.SetPosted(ctx, documentNumber, system, posted)
	default:
		return fmt.Errorf("mark posted: unknown document type %q", documentType)
	}
}

// withConflictRetry retries fn a bounded number of times while the database
// reports a serialization conflict, then lets ErrConflict surface.
func (l *Ledger) withConflictRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

func lineByID(order *entity.SalesOrder, lineID string) *entity.SalesOrderLineItem {
	for i := range order.LineItems {
		if order.LineItems[i].ID == lineID {
			return &order.LineItems[i]
		}
	}
	return nil
}
