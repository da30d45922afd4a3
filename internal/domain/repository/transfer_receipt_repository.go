package repository

import (
	"context"

	"github.com/storelink/transfer-api/internal/domain/entity"
)

// TransferReceiptRepository is the persistence port for transfer receipt notes.
type TransferReceiptRepository interface {
	GetByReceiptNumber(ctx context.Context, receiptNumber int64) (*entity.TransferReceiptNote, error)
	// NextReceiptNumber allocates the next number from the receipt sequence.
	NextReceiptNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, note *entity.TransferReceiptNote) error
	ListByGoodsIssue(ctx context.Context, goodsIssueID string) ([]*entity.TransferReceiptNote, error)
	SetPosted(ctx context.Context, receiptNumber int64, system string, posted bool) error
}
