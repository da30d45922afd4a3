package repository

import (
	"context"

	"github.com/storelink/transfer-api/internal/domain/entity"
)

// StoreRepository is the read port for store reference data.
type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Store, error)
	// GetByExternalCode resolves a store by ByD cost-center code first, then
	// by ICG warehouse code. Returns domain.ErrNotFound when neither matches.
	GetByExternalCode(ctx context.Context, code string) (*entity.Store, error)
	List(ctx context.Context) ([]*entity.Store, error)
	Upsert(ctx context.Context, store *entity.Store) error
}
