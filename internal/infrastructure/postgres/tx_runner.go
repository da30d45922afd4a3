package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storelink/transfer-api/internal/application/transfer"
	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/repository"
)

var _ transfer.TxRunner = (*TxRunner)(nil)

// TxRunner executes callbacks inside one PostgreSQL transaction.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner builds the runner with the pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run begins a transaction, executes fn with repositories bound to it and
// commits or rolls back. Serialization failures surface as domain.ErrConflict
// so callers can retry.
func (r *TxRunner) Run(ctx context.Context, fn func(
	orderRepo repository.SalesOrderRepository,
	issueRepo repository.GoodsIssueRepository,
	receiptRepo repository.TransferReceiptRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderRepo := NewSalesOrderRepository(tx)
	issueRepo := NewGoodsIssueRepository(tx)
	receiptRepo := NewTransferReceiptRepository(tx)

	if err := fn(orderRepo, issueRepo, receiptRepo); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("transaction aborted: %w", domain.ErrConflict)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("commit transaction: %w", domain.ErrConflict)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
