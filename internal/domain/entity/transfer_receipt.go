package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferReceiptNote records stock received at the destination store against
// a goods issue note.
type TransferReceiptNote struct {
	ID                 string
	ReceiptNumber      int64 // system-generated, monotonically increasing, unique
	GoodsIssueID       string
	IssueNumber        int64
	DestinationStoreID string
	CreatedBy          string
	CreatedAt          time.Time
	PostedToICG        bool
	LineItems          []TransferReceiptLineItem
}

// TransferReceiptLineItem receives a quantity against one goods issue line.
type TransferReceiptLineItem struct {
	ID               string
	TransferReceiptID string
	IssueLineID      string // GoodsIssueLineItem.ID
	ProductID        string
	ProductName      string
	QuantityReceived decimal.Decimal
	UnitPrice        decimal.Decimal
	ValueReceived    decimal.Decimal // quantity × unit price, 2 dp
}

// TotalQuantityReceived sums the received quantity across all lines.
func (n *TransferReceiptNote) TotalQuantityReceived() decimal.Decimal {
	total := decimal.Zero
	for _, li := range n.LineItems {
		total = total.Add(li.QuantityReceived)
	}
	return total
}

// TotalValueReceived sums the received value across all lines.
func (n *TransferReceiptNote) TotalValueReceived() decimal.Decimal {
	total := decimal.Zero
	for _, li := range n.LineItems {
		total = total.Add(li.ValueReceived)
	}
	return total
}
