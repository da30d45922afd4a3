package entity

import "time"

// Store roles, in decreasing order of privilege.
const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleAssistant = "assistant"
)

// StoreAuthorization links a user to a store with a role. Lifecycle owned by
// administration; the workflow core only reads it.
type StoreAuthorization struct {
	ID        string
	UserID    string
	StoreID   string
	Role      string
	CreatedAt time.Time
}
