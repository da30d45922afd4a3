package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Delivery status of a sales order, derived from its line items.
const (
	DeliveryNotDelivered       = "NOT_DELIVERED"
	DeliveryPartiallyDelivered = "PARTIALLY_DELIVERED"
	DeliveryCompleted          = "COMPLETED"
)

// SalesOrder is an ERP-originated transfer order between two stores.
// Created and updated by the ERP sync source; the workflow core mutates only
// the derived fields (line issued quantities, delivery status) and always
// inside the same transaction that appends the child document.
type SalesOrder struct {
	ID                 string
	ObjectID           string // SAP ByD object id, unique
	OrderNumber        int64  // SAP ByD sales order id, unique
	SourceStoreID      string
	DestinationStoreID string
	OrderDate          time.Time
	TotalNetAmount     decimal.Decimal
	DeliveryStatus     string
	LineItems          []SalesOrderLineItem
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SalesOrderLineItem is one ordered product on a sales order.
// IssuedQuantity is the running sum of all goods-issue lines referencing this
// line; it is maintained transactionally, never set directly by callers.
type SalesOrderLineItem struct {
	ID            string
	SalesOrderID  string
	ObjectID      string // SAP ByD line object id, unique
	ProductID     string
	ProductName   string
	Quantity      decimal.Decimal // ordered quantity, 3 dp
	UnitPrice     decimal.Decimal
	UnitOfMeasure string
	IssuedQty     decimal.Decimal
}

// Outstanding returns the quantity still available for issue
// (ordered minus issued). Never negative while the ledger invariant holds.
func (li SalesOrderLineItem) Outstanding() decimal.Decimal {
	return li.Quantity.Sub(li.IssuedQty)
}

// LineTotal returns the ordered value of the line (quantity × unit price).
func (li SalesOrderLineItem) LineTotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice).Round(2)
}

// LineItem returns the line with the given object id, or nil.
func (so *SalesOrder) LineItem(objectID string) *SalesOrderLineItem {
	for i := range so.LineItems {
		if so.LineItems[i].ObjectID == objectID {
			return &so.LineItems[i]
		}
	}
	return nil
}
