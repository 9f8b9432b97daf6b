// Package moderation decides which messages need approval and applies
// approval decisions.
package moderation

import (
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/thread"
)

// RequiresApproval reports whether a message from senderRole into t must
// be approved before other participants see it. Messages from admins, and
// messages in threads an admin always bridges, never do. Messages between
// a client and a freelancer without an admin in the delivery path do.
func RequiresApproval(t *thread.Thread, senderRole actor.Role) bool {
	if t == nil || senderRole == actor.RoleAdmin {
		return false
	}
	switch t.Type {
	case thread.TypeAdminClient, thread.TypeAdminFreelancer:
		return false
	case thread.TypeClientAdminFreelancer:
		return true
	case thread.TypeDirect:
		return t.Supervised()
	}
	return false
}
