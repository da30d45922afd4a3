package entity

import "time"

// User is an operator account. Store-level access is granted separately via
// StoreAuthorization records.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // bcrypt hash, never plaintext after persisting
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
