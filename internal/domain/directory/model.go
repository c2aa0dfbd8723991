package directory

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the two kinds of account. A user's role is fixed at
// registration.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// User maps to the users table. Users are never deleted.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Role         Role      `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Public returns the externally visible subset of a user record.
func (u *User) Public() map[string]interface{} {
	return map[string]interface{}{
		"id":   u.ID,
		"name": u.Name,
		"role": u.Role,
	}
}
