package transfer

import (
	"context"
	"errors"

	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
)

var _ StoreAuthority = (*AuthorityService)(nil)

// AuthorityService answers store-authorization questions from the
// StoreAuthorization records. A missing grant is an answer (false), not an
// error.
type AuthorityService struct {
	repo repository.StoreAuthorizationRepository
}

// NewAuthorityService builds the store authority.
func NewAuthorityService(repo repository.StoreAuthorizationRepository) *AuthorityService {
	return &AuthorityService{repo: repo}
}

// IsAuthorized reports whether userID holds one of roles for storeID.
func (a *AuthorityService) IsAuthorized(ctx context.Context, userID, storeID string, roles ...string) (bool, error) {
	auth, err := a.repo.Get(ctx, userID, storeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(roles) == 0 {
		return true, nil
	}
	for _, role := range roles {
		if auth.Role == role {
			return true, nil
		}
	}
	return false, nil
}

// IsAdmin reports whether the user holds the admin role on any store.
func (a *AuthorityService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return a.repo.HasRoleAnywhere(ctx, userID, entity.RoleAdmin)
}

// AuthorizedStoreIDs returns every store the user may act on.
func (a *AuthorityService) AuthorizedStoreIDs(ctx context.Context, userID string) ([]string, error) {
	return a.repo.ListStoreIDs(ctx, userID)
}
