package actor

import (
	"strings"

	"github.com/ganot/parley/internal/apperr"
)

// Role is a user's application role.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
)

var (
	// ErrMissingActor indicates an operation was invoked without an actor.
	ErrMissingActor = apperr.Validation("actor is required")
	// ErrUnknownRole indicates a role outside admin/client/freelancer.
	ErrUnknownRole = apperr.Validation("unknown role")
)

// Actor identifies who is performing an operation. It is passed explicitly
// into every core call instead of being read from ambient session state.
type Actor struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// New returns an actor for the given user and role.
func New(userID string, role Role) Actor {
	return Actor{UserID: userID, Role: role}
}

// Validate checks that the actor is usable.
func (a Actor) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return ErrMissingActor
	}
	if !a.Role.Valid() {
		return ErrUnknownRole
	}
	return nil
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Can reports whether the actor's role permits the action.
func (a Actor) Can(action Action) bool {
	return Can(a.Role, action)
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleFreelancer:
		return true
	}
	return false
}

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}
