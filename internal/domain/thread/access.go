package thread

import "github.com/ganot/parley/internal/domain/actor"

// CanAccess reports whether the actor may read and post in the thread.
// Admins belong to every project thread and every supervised direct
// thread by role.
func CanAccess(a actor.Actor, t *Thread) bool {
	if t == nil {
		return false
	}
	if a.IsAdmin() && (t.Type.IsProject() || t.Supervised()) {
		return true
	}
	return t.HasParticipant(a.UserID)
}

// CanModerate reports whether the actor has moderation authority over the
// thread: an admin who is a party to it, implicitly or explicitly.
func CanModerate(a actor.Actor, t *Thread) bool {
	if t == nil || !a.Can(actor.ActionModerate) {
		return false
	}
	return t.Type.IsProject() || t.Supervised() || t.HasParticipant(a.UserID)
}
