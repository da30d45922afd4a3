package repository

import (
	"context"

	"github.com/storelink/transfer-api/internal/domain/entity"
)

// StoreAuthorizationRepository is the read port for user↔store authorization.
type StoreAuthorizationRepository interface {
	// Get returns the authorization for (userID, storeID), or
	// domain.ErrNotFound when the user has no grant for the store.
	Get(ctx context.Context, userID, storeID string) (*entity.StoreAuthorization, error)
	// ListStoreIDs returns the ids of every store the user is authorized for.
	ListStoreIDs(ctx context.Context, userID string) ([]string, error)
	// HasRoleAnywhere reports whether the user holds role on at least one store.
	HasRoleAnywhere(ctx context.Context, userID, role string) (bool, error)
	Create(ctx context.Context, auth *entity.StoreAuthorization) error
}
