package transfer

import (
	"context"

	"github.com/storelink/transfer-api/internal/domain/repository"
)

// TxRunner executes a function inside one database transaction, passing
// repositories bound to that transaction. Guarantees atomicity for the
// ledger's append operations.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		orderRepo repository.SalesOrderRepository,
		issueRepo repository.GoodsIssueRepository,
		receiptRepo repository.TransferReceiptRepository,
	) error) error
}

// StoreAuthority resolves which stores a user may act on and in what role.
// Consumed by every write operation and by the read-side store scoping.
type StoreAuthority interface {
	// IsAuthorized reports whether the user holds one of the given roles for
	// the store. An empty roles list means any role qualifies.
	IsAuthorized(ctx context.Context, userID, storeID string, roles ...string) (bool, error)
	// AuthorizedStoreIDs returns every store the user may act on.
	AuthorizedStoreIDs(ctx context.Context, userID string) ([]string, error)
}

// EventEnqueuer enqueues outbound sync events after a ledger append commits.
// A failed enqueue is logged and never fails the originating request.
type EventEnqueuer interface {
	EnqueueDocumentSync(ctx context.Context, documentType string, documentNumber int64, targetSystems ...string) error
}
