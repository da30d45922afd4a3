package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoodsIssueNote records stock dispatched from the source store against a
// sales order. The line set is immutable after creation; the posted flags and
// the per-line received quantities mutate as sync and receipts are applied.
type GoodsIssueNote struct {
	ID            string
	IssueNumber   int64 // system-generated, monotonically increasing, unique
	SalesOrderID  string
	OrderNumber   int64
	SourceStoreID string
	CreatedBy     string
	CreatedAt     time.Time
	PostedToICG   bool
	PostedToSAP   bool
	LineItems     []GoodsIssueLineItem
}

// GoodsIssueLineItem issues a quantity against one sales order line.
type GoodsIssueLineItem struct {
	ID              string
	GoodsIssueID    string
	OrderLineID     string // SalesOrderLineItem.ID
	OrderLineObject string // SalesOrderLineItem.ObjectID
	ProductID       string
	ProductName     string
	QuantityIssued  decimal.Decimal
	UnitPrice       decimal.Decimal
	ValueIssued     decimal.Decimal // quantity × unit price, 2 dp
	ReceivedQty     decimal.Decimal // sum of receipt lines referencing this line
}

// Receivable returns the quantity still awaiting receipt on this line.
func (li GoodsIssueLineItem) Receivable() decimal.Decimal {
	return li.QuantityIssued.Sub(li.ReceivedQty)
}

// TotalQuantityIssued sums the issued quantity across all lines.
func (n *GoodsIssueNote) TotalQuantityIssued() decimal.Decimal {
	total := decimal.Zero
	for _, li := range n.LineItems {
		total = total.Add(li.QuantityIssued)
	}
	return total
}

// TotalValueIssued sums the issued value across all lines.
func (n *GoodsIssueNote) TotalValueIssued() decimal.Decimal {
	total := decimal.Zero
	for _, li := range n.LineItems {
		total = total.Add(li.ValueIssued)
	}
	return total
}

// FullyReceived reports whether every line has been received in full.
func (n *GoodsIssueNote) FullyReceived() bool {
	for _, li := range n.LineItems {
		if li.ReceivedQty.LessThan(li.QuantityIssued) {
			return false
		}
	}
	return true
}

// LineItem returns the line with the given id, or nil.
func (n *GoodsIssueNote) LineItem(id string) *GoodsIssueLineItem {
	for i := range n.LineItems {
		if n.LineItems[i].ID == id {
			return &n.LineItems[i]
		}
	}
	return nil
}
