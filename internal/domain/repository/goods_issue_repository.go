package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/storelink/transfer-api/internal/domain/entity"
)

// GoodsIssueRepository is the persistence port for goods issue notes.
type GoodsIssueRepository interface {
	GetByIssueNumber(ctx context.Context, issueNumber int64) (*entity.GoodsIssueNote, error)
	// GetByIssueNumberForUpdate locks the note row before a receipt append.
	GetByIssueNumberForUpdate(ctx context.Context, issueNumber int64) (*entity.GoodsIssueNote, error)
	// NextIssueNumber allocates the next number from the issue sequence.
	// Allocated only after validation passes, so rejected requests leave no gap.
	NextIssueNumber(ctx context.Context) (int64, error)
	// Create persists the note and its lines.
	Create(ctx context.Context, note *entity.GoodsIssueNote) error
	// AddReceivedQuantity increments an issue line's received quantity by delta.
	AddReceivedQuantity(ctx context.Context, lineID string, delta decimal.Decimal) error
	// ListPendingByDestinationStores returns notes with at least one line not
	// fully received, whose parent order's destination store is in storeIDs.
	ListPendingByDestinationStores(ctx context.Context, storeIDs []string) ([]*entity.GoodsIssueNote, error)
	ListBySalesOrder(ctx context.Context, salesOrderID string) ([]*entity.GoodsIssueNote, error)
	// SetPosted flips a posted_to_* flag. system is entity.TargetSAPByD or
	// entity.TargetICG.
	SetPosted(ctx context.Context, issueNumber int64, system string, posted bool) error
}
