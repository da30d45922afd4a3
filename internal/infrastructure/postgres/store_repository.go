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

var _ repository.StoreRepository = (*StoreRepo)(nil)

// StoreRepo PostgreSQL adapter for store reference data.
type StoreRepo struct {
	q Querier
}

// NewStoreRepository builds the adapter. Pass a pool or tx (Querier).
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

const storeColumns = `id, name, email, icg_warehouse_code, icg_code, byd_cost_center_code, created_at, updated_at`

// GetByID loads one store.
func (r *StoreRepo) GetByID(ctx context.Context, id string) (*entity.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByExternalCode resolves a store by ByD cost-center code first, then by
// ICG warehouse code.
func (r *StoreRepo) GetByExternalCode(ctx context.Context, code string) (*entity.Store, error) {
	query := `
		SELECT ` + storeColumns + ` FROM stores
		WHERE byd_cost_center_code = $1 OR icg_warehouse_code = $1
		ORDER BY (byd_cost_center_code = $1) DESC
		LIMIT 1`
	return r.getOne(ctx, query, code)
}

func (r *StoreRepo) getOne(ctx context.Context, query string, arg any) (*entity.Store, error) {
	var s entity.Store
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&s.ID, &s.Name, &s.Email, &s.ICGWarehouse, &s.ICGCode, &s.BYDCostCenter,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("store: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return &s, nil
}

// List returns every store, by name.
func (r *StoreRepo) List(ctx context.Context) ([]*entity.Store, error) {
	rows, err := r.q.Query(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()
	var list []*entity.Store
	for rows.Next() {
		var s entity.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.ICGWarehouse, &s.ICGCode,
			&s.BYDCostCenter, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// Upsert inserts the store or refreshes it by ByD cost-center code.
func (r *StoreRepo) Upsert(ctx context.Context, store *entity.Store) error {
	query := `
		INSERT INTO stores (id, name, email, icg_warehouse_code, icg_code, byd_cost_center_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (byd_cost_center_code) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    icg_warehouse_code = EXCLUDED.icg_warehouse_code,
		    icg_code = EXCLUDED.icg_code,
		    updated_at = now()`
	_, err := r.q.Exec(ctx, query,
		store.ID, store.Name, store.Email, store.ICGWarehouse, store.ICGCode, store.BYDCostCenter,
	)
	if err != nil {
		return fmt.Errorf("upsert store: %w", err)
	}
	return nil
}
