package user

import (
	"time"

	"github.com/ganot/parley/internal/domain/actor"
)

// User is the identity record consumed by the messaging core.
type User struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Role        actor.Role `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Actor returns the user as an operation actor.
func (u User) Actor() actor.Actor {
	return actor.New(u.ID, u.Role)
}
