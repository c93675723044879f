// Package auth defines the caller identity resolved once per request.
package auth

import (
	"github.com/finzie/booking-coordinator/internal/validators"
)

type Role string

const (
	RoleFreelancer Role = "freelancer"
	RoleClient     Role = "client"
	RoleAdmin      Role = "admin"
)

type Identity struct {
	ID    string
	Email string
	Role  Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// OwnsEmail reports whether the identity's email matches, ignoring case and
// surrounding whitespace.
func (i Identity) OwnsEmail(email string) bool {
	return validators.EmailsMatch(i.Email, email)
}
