package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
)

// Enqueuer writes one outbox event per (document, target) pair. Inserts are
// idempotent on the key, so re-running a request that already enqueued is a
// no-op.
type Enqueuer struct {
	repo repository.SyncEventRepository
	now  func() time.Time
}

// NewEnqueuer builds the outbox enqueuer. now is injectable for tests; pass
// nil for time.Now.
func NewEnqueuer(repo repository.SyncEventRepository, now func() time.Time) *Enqueuer {
	if now == nil {
		now = time.Now
	}
	return &Enqueuer{repo: repo, now: now}
}

// EnqueueDocumentSync enqueues one PENDING event per target system, due
// immediately.
func (e *Enqueuer) EnqueueDocumentSync(ctx context.Context, documentType string, documentNumber int64, targetSystems ...string) error {
	now := e.now()
	for _, target := range targetSystems {
		event := &entity.SyncEvent{
			ID:             uuid.New().String(),
			DocumentType:   documentType,
			DocumentNumber: documentNumber,
			TargetSystem:   target,
			Status:         entity.SyncPending,
			NextAttemptAt:  now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := e.repo.Enqueue(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
