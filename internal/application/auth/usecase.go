package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/storelink/transfer-api/internal/application/dto"
	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
	"github.com/storelink/transfer-api/pkg/jwt"
)

// JWTConfig token generation settings.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// UseCase registration and login.
type UseCase struct {
	userRepo repository.UserRepository
	authRepo repository.StoreAuthorizationRepository
	jwtCfg   JWTConfig
}

// NewUseCase builds the auth use case.
func NewUseCase(userRepo repository.UserRepository, authRepo repository.StoreAuthorizationRepository, jwtCfg JWTConfig) *UseCase {
	return &UseCase{userRepo: userRepo, authRepo: authRepo, jwtCfg: jwtCfg}
}

// Register creates a user: hashes the password with bcrypt and persists.
// Returns ErrEmailTaken when the email is already registered.
func (uc *UseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	existing, err := uc.userRepo.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// Login verifies email/password and returns a JWT plus the user.
func (uc *UseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *toUserResponse(user),
	}, nil
}

// GrantStore gives a user a role on a store. Admin-only at the HTTP layer.
func (uc *UseCase) GrantStore(ctx context.Context, in dto.GrantStoreRequest) error {
	return uc.authRepo.Create(ctx, &entity.StoreAuthorization{
		ID:        uuid.New().String(),
		UserID:    in.UserID,
		StoreID:   in.StoreID,
		Role:      in.Role,
		CreatedAt: time.Now(),
	})
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
