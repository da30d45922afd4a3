package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
)

var _ repository.StoreAuthorizationRepository = (*StoreAuthorizationRepo)(nil)

// StoreAuthorizationRepo PostgreSQL adapter for user↔store grants.
type StoreAuthorizationRepo struct {
	q Querier
}

// NewStoreAuthorizationRepository builds the adapter. Pass a pool or tx (Querier).
func NewStoreAuthorizationRepository(q Querier) *StoreAuthorizationRepo {
	return &StoreAuthorizationRepo{q: q}
}

// Get returns the grant for (userID, storeID).
func (r *StoreAuthorizationRepo) Get(ctx context.Context, userID, storeID string) (*entity.StoreAuthorization, error) {
	query := `
		SELECT id, user_id, store_id, role, created_at
		FROM store_authorizations WHERE user_id = $1 AND store_id = $2`
	var a entity.StoreAuthorization
	err := r.q.QueryRow(ctx, query, userID, storeID).Scan(&a.ID, &a.UserID, &a.StoreID, &a.Role, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("store authorization: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get store authorization: %w", err)
	}
	return &a, nil
}

// ListStoreIDs returns the ids of every store the user is authorized for.
func (r *StoreAuthorizationRepo) ListStoreIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT store_id FROM store_authorizations WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list authorized stores: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan store id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HasRoleAnywhere reports whether the user holds role on at least one store.
func (r *StoreAuthorizationRepo) HasRoleAnywhere(ctx context.Context, userID, role string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM store_authorizations WHERE user_id = $1 AND role = $2)`,
		userID, role).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return exists, nil
}

// Create persists a grant; one grant per (user, store).
func (r *StoreAuthorizationRepo) Create(ctx context.Context, auth *entity.StoreAuthorization) error {
	query := `
		INSERT INTO store_authorizations (id, user_id, store_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, auth.ID, auth.UserID, auth.StoreID, auth.Role, auth.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store authorization: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("create store authorization: %w", err)
	}
	return nil
}
