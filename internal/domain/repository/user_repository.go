package repository

import (
	"context"

	"github.com/storelink/transfer-api/internal/domain/entity"
)

// UserRepository is the persistence port for operator accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
}
