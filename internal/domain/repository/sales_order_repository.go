package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/storelink/transfer-api/internal/domain/entity"
)

// SalesOrderRepository is the persistence port for sales orders and their
// line items. Mutating methods are only ever called inside a ledger
// transaction.
type SalesOrderRepository interface {
	// GetByOrderNumber loads an order with its line items.
	GetByOrderNumber(ctx context.Context, orderNumber int64) (*entity.SalesOrder, error)
	// GetByOrderNumberForUpdate locks the order row (SELECT FOR UPDATE) so at
	// most one mutating append per sales order is in flight, then loads it
	// with line items.
	GetByOrderNumberForUpdate(ctx context.Context, orderNumber int64) (*entity.SalesOrder, error)
	GetByObjectID(ctx context.Context, objectID string) (*entity.SalesOrder, error)
	// ListByStores returns orders whose source or destination store is in
	// storeIDs, newest order date first.
	ListByStores(ctx context.Context, storeIDs []string) ([]*entity.SalesOrder, error)
	// ListPendingBySourceStores returns orders not yet COMPLETED whose source
	// store is in storeIDs, newest order date first.
	ListPendingBySourceStores(ctx context.Context, storeIDs []string) ([]*entity.SalesOrder, error)
	Create(ctx context.Context, order *entity.SalesOrder) error
	// UpdateHeader refreshes ERP-owned header fields (amount, date, status).
	UpdateHeader(ctx context.Context, order *entity.SalesOrder) error
	// AddIssuedQuantity increments a line's issued quantity by delta.
	AddIssuedQuantity(ctx context.Context, lineID string, delta decimal.Decimal) error
	// SetDeliveryStatus stores the derived aggregate status.
	SetDeliveryStatus(ctx context.Context, orderID, status string) error
	// CountGoodsIssues returns how many issue notes exist for the order.
	CountGoodsIssues(ctx context.Context, orderID string) (int, error)
}
