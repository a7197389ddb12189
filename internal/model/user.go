package model

import "time"

// Roles carried in the access token and checked by RequireRole.
const (
	RoleAdmin     = "ADMIN"
	RoleOrganizer = "ORGANIZER"
)

// User is an operator allowed to manage reservations.  Only the bcrypt
// hash of the password is stored.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role (ADMIN or ORGANIZER)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
