package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
)

var _ repository.SyncEventRepository = (*SyncEventRepo)(nil)

// SyncEventRepo PostgreSQL adapter for the outbound sync queue.
type SyncEventRepo struct {
	q Querier
}

// NewSyncEventRepository builds the adapter. Pass a pool or tx (Querier).
func NewSyncEventRepository(q Querier) *SyncEventRepo {
	return &SyncEventRepo{q: q}
}

const syncEventColumns = `id, document_type, document_number, target_system, status, attempts, next_attempt_at, last_error, locked_by, locked_at, created_at, updated_at`

// Enqueue inserts the event; a duplicate idempotency key is a no-op.
func (r *SyncEventRepo) Enqueue(ctx context.Context, event *entity.SyncEvent) error {
	query := `
		INSERT INTO sync_events (id, document_type, document_number, target_system, status, attempts, next_attempt_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (document_type, document_number, target_system) DO NOTHING`
	_, err := r.q.Exec(ctx, query,
		event.ID, event.DocumentType, event.DocumentNumber, event.TargetSystem,
		event.Status, event.Attempts, event.NextAttemptAt, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("enqueue sync event: %w", err)
	}
	return nil
}

// ClaimDue picks up to limit due events with FOR UPDATE SKIP LOCKED and marks
// them IN_FLIGHT for workerID. Also reclaims IN_FLIGHT rows whose lock is
// older than staleAfter (abandoned by a dead worker).
func (r *SyncEventRepo) ClaimDue(ctx context.Context, workerID string, limit int, staleAfter time.Duration) ([]*entity.SyncEvent, error) {
	query := `
		WITH due AS (
			SELECT id FROM sync_events
			WHERE (status IN ($1, $2) AND next_attempt_at <= now())
			   OR (status = $3 AND locked_at <= now() - $4::interval)
			ORDER BY next_attempt_at
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		UPDATE sync_events se
		SET status = $3, locked_by = $6, locked_at = now(), updated_at = now()
		FROM due WHERE se.id = due.id
		RETURNING ` + prefixedColumns("se", syncEventColumns)
	rows, err := r.q.Query(ctx, query,
		entity.SyncPending, entity.SyncFailedRetryable, entity.SyncInFlight,
		staleAfter.String(), limit, workerID,
	)
	if err != nil {
		return nil, fmt.Errorf("claim sync events: %w", err)
	}
	defer rows.Close()
	var list []*entity.SyncEvent
	for rows.Next() {
		ev, err := scanSyncEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

// MarkPosted settles a delivered event.
func (r *SyncEventRepo) MarkPosted(ctx context.Context, id string) error {
	query := `
		UPDATE sync_events
		SET status = $2, attempts = attempts + 1, last_error = '', locked_by = '', locked_at = NULL, updated_at = now()
		WHERE id = $1`
	return r.exec(ctx, query, id, entity.SyncPosted)
}

// MarkRetry re-queues the event with the next attempt time and the error.
func (r *SyncEventRepo) MarkRetry(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error {
	query := `
		UPDATE sync_events
		SET status = $2, attempts = $3, next_attempt_at = $4, last_error = $5, locked_by = '', locked_at = NULL, updated_at = now()
		WHERE id = $1`
	return r.exec(ctx, query, id, entity.SyncFailedRetryable, attempts, nextAttemptAt, lastError)
}

// MarkTerminal parks the event for operator review.
func (r *SyncEventRepo) MarkTerminal(ctx context.Context, id string, attempts int, lastError string) error {
	query := `
		UPDATE sync_events
		SET status = $2, attempts = $3, last_error = $4, locked_by = '', locked_at = NULL, updated_at = now()
		WHERE id = $1`
	return r.exec(ctx, query, id, entity.SyncFailedTerminal, attempts, lastError)
}

// Requeue puts a FAILED_TERMINAL event back to PENDING, due immediately.
func (r *SyncEventRepo) Requeue(ctx context.Context, id string) error {
	query := `
		UPDATE sync_events
		SET status = $2, next_attempt_at = now(), updated_at = now()
		WHERE id = $1 AND status = $3`
	return r.exec(ctx, query, id, entity.SyncPending, entity.SyncFailedTerminal)
}

// CancelPending deletes the event only while still PENDING.
func (r *SyncEventRepo) CancelPending(ctx context.Context, id string) error {
	query := `DELETE FROM sync_events WHERE id = $1 AND status = $2`
	return r.exec(ctx, query, id, entity.SyncPending)
}

// ListByStatus returns events in one state, most recently updated first.
func (r *SyncEventRepo) ListByStatus(ctx context.Context, status string, limit int) ([]*entity.SyncEvent, error) {
	query := `SELECT ` + syncEventColumns + ` FROM sync_events WHERE status = $1 ORDER BY updated_at DESC LIMIT $2`
	rows, err := r.q.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync events: %w", err)
	}
	defer rows.Close()
	var list []*entity.SyncEvent
	for rows.Next() {
		ev, err := scanSyncEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

func (r *SyncEventRepo) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update sync event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sync event: %w", domain.ErrNotFound)
	}
	return nil
}

func scanSyncEvent(row pgx.Row) (*entity.SyncEvent, error) {
	var ev entity.SyncEvent
	var lastError, lockedBy *string
	err := row.Scan(
		&ev.ID, &ev.DocumentType, &ev.DocumentNumber, &ev.TargetSystem, &ev.Status,
		&ev.Attempts, &ev.NextAttemptAt, &lastError, &lockedBy, &ev.LockedAt,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sync event: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan sync event: %w", err)
	}
	if lastError != nil {
		ev.LastError = *lastError
	}
	if lockedBy != nil {
		ev.LockedBy = *lockedBy
	}
	return &ev, nil
}

// prefixedColumns qualifies each column of a comma-separated list with an
// alias, for RETURNING clauses on aliased updates.
func prefixedColumns(alias, columns string) string {
	cols := strings.Split(columns, ", ")
	for i, col := range cols {
		cols[i] = alias + "." + col
	}
	return strings.Join(cols, ", ")
}
