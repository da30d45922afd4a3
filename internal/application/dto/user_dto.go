package dto

import "time"

// RegisterRequest input to register a user (password in plain text, hashed in
// the use case).
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
}

// LoginRequest input for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse output for a user (no password).
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginResponse output with the JWT access token.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// GrantStoreRequest input to grant a user a role on a store.
type GrantStoreRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	StoreID string `json:"store_id" validate:"required,uuid"`
	Role    string `json:"role" validate:"required,oneof=admin manager assistant"`
}
