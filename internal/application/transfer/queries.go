package transfer

import (
	"context"

	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
)

// Queries is the read side: projections over the ledger, each scoped by the
// caller's authorized store set. No side effects; safe on a replica.
type Queries struct {
	orderRepo   repository.SalesOrderRepository
	issueRepo   repository.GoodsIssueRepository
	receiptRepo repository.TransferReceiptRepository
	summaryRepo repository.SummaryRepository
	authority   StoreAuthority
}

// NewQueries builds the read-side facade.
func NewQueries(
	orderRepo repository.SalesOrderRepository,
	issueRepo repository.GoodsIssueRepository,
	receiptRepo repository.TransferReceiptRepository,
	summaryRepo repository.SummaryRepository,
	authority StoreAuthority,
) *Queries {
	return &Queries{
		orderRepo:   orderRepo,
		issueRepo:   issueRepo,
		receiptRepo: receiptRepo,
		summaryRepo: summaryRepo,
		authority:   authority,
	}
}

// ListSalesOrders returns the orders touching any of the user's stores,
// newest order date first.
func (q *Queries) ListSalesOrders(ctx context.Context, userID string) ([]*entity.SalesOrder, error) {
	stores, err := q.authority.AuthorizedStoreIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return nil, nil
	}
	return q.orderRepo.ListByStores(ctx, stores)
}

// GetSalesOrder loads one order; the user must be authorized for its source
// or destination store.
func (q *Queries) GetSalesOrder(ctx context.Context, userID string, orderNumber int64) (*entity.SalesOrder, error) {
	order, err := q.orderRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if err := q.requireEitherStore(ctx, userID, order.SourceStoreID, order.DestinationStoreID); err != nil {
		return nil, err
	}
	return order, nil
}

// PendingIssues returns sales orders not yet completely issued whose source
// store is one of the user's stores.
func (q *Queries) PendingIssues(ctx context.Context, userID string) ([]*entity.SalesOrder, error) {
	stores, err := q.authority.AuthorizedStoreIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return nil, nil
	}
	return q.orderRepo.ListPendingBySourceStores(ctx, stores)
}

// PendingReceipts returns goods issue notes with at least one line awaiting
// receipt, destined for one of the user's stores.
func (q *Queries) PendingReceipts(ctx context.Context, userID string) ([]*entity.GoodsIssueNote, error) {
	stores, err := q.authority.AuthorizedStoreIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return nil, nil
	}
	return q.issueRepo.ListPendingByDestinationStores(ctx, stores)
}

// TransferSummary returns per-store transfer aggregates for the user's stores.
func (q *Queries) TransferSummary(ctx context.Context, userID string) ([]repository.StoreTransferSummary, error) {
	stores, err := q.authority.AuthorizedStoreIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return nil, nil
	}
	return q.summaryRepo.TransferSummaryByStores(ctx, stores)
}

// GetGoodsIssue loads one issue note; the user must be authorized for the
// source store or the parent order's destination store.
func (q *Queries) GetGoodsIssue(ctx context.Context, userID string, issueNumber int64) (*entity.GoodsIssueNote, error) {
	issue, err := q.issueRepo.GetByIssueNumber(ctx, issueNumber)
	if err != nil {
		return nil, err
	}
	order, err := q.orderRepo.GetByOrderNumber(ctx, issue.OrderNumber)
	if err != nil {
		return nil, err
	}
	if err := q.requireEitherStore(ctx, userID, order.SourceStoreID, order.DestinationStoreID); err != nil {
		return nil, err
	}
	return issue, nil
}

// GetTransferReceipt loads one receipt note; the user must be authorized for
// its destination store.
func (q *Queries) GetTransferReceipt(ctx context.Context, userID string, receiptNumber int64) (*entity.TransferReceiptNote, error) {
	receipt, err := q.receiptRepo.GetByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return nil, err
	}
	ok, err := q.authority.IsAuthorized(ctx, userID, receipt.DestinationStoreID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	return receipt, nil
}

func (q *Queries) requireEitherStore(ctx context.Context, userID, storeA, storeB string) error {
	ok, err := q.authority.IsAuthorized(ctx, userID, storeA)
	if err != nil {
		return err
	}
	if !ok {
		ok, err = q.authority.IsAuthorized(ctx, userID, storeB)
		if err != nil {
			return err
		}
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}
