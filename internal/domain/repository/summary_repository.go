package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// StoreTransferSummary is one row of the per-store transfer summary.
type StoreTransferSummary struct {
	StoreID            string
	StoreName          string
	OutboundOrders     int64
	InboundOrders      int64
	PendingIssues      int64
	PendingReceipts    int64
	TotalValueIssued   decimal.Decimal
	TotalValueReceived decimal.Decimal
}

// SummaryRepository computes read-only per-store aggregates. Safe to run on a
// replica; results may lag the ledger by bounded staleness.
type SummaryRepository interface {
	TransferSummaryByStores(ctx context.Context, storeIDs []string) ([]StoreTransferSummary, error)
}
