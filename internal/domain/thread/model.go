package thread

import (
	"sort"
	"strings"
	"time"

	"github.com/ganot/parley/internal/domain/actor"
)

// Type is the participant topology of a thread.
type Type string

const (
	TypeDirect                Type = "direct"
	TypeClientAdminFreelancer Type = "project_client_admin_freelancer"
	TypeAdminClient           Type = "project_admin_client"
	TypeAdminFreelancer       Type = "project_admin_freelancer"
)

// ProjectTypes lists the project-scoped topologies in display order.
var ProjectTypes = []Type{TypeClientAdminFreelancer, TypeAdminClient, TypeAdminFreelancer}

// Valid reports whether t is a known thread type.
func (t Type) Valid() bool {
	return t == TypeDirect || t.IsProject()
}

// IsProject reports whether the type is scoped to a project.
func (t Type) IsProject() bool {
	switch t {
	case TypeClientAdminFreelancer, TypeAdminClient, TypeAdminFreelancer:
		return true
	}
	return false
}

// PartyRoles returns the non-admin roles seeded into a project thread of
// this type. Admins are members of every project thread implicitly.
func (t Type) PartyRoles() []actor.Role {
	switch t {
	case TypeClientAdminFreelancer:
		return []actor.Role{actor.RoleClient, actor.RoleFreelancer}
	case TypeAdminClient:
		return []actor.Role{actor.RoleClient}
	case TypeAdminFreelancer:
		return []actor.Role{actor.RoleFreelancer}
	}
	return nil
}

// Label is the human-readable topology name used in derived titles.
func (t Type) Label() string {
	switch t {
	case TypeClientAdminFreelancer:
		return "Client, Admin & Freelancer"
	case TypeAdminClient:
		return "Admin & Client"
	case TypeAdminFreelancer:
		return "Admin & Freelancer"
	case TypeDirect:
		return "Direct"
	}
	return string(t)
}

// Participant is a user with standing membership in a thread. Role is the
// user's role when they joined.
type Participant struct {
	UserID string     `json:"user_id"`
	Role   actor.Role `json:"role"`
}

// Thread is a scoped conversation container.
type Thread struct {
	ID           string        `json:"id"`
	ProjectID    *string       `json:"project_id,omitempty"`
	Type         Type          `json:"type"`
	Participants []Participant `json:"participants"`
	Title        string        `json:"title,omitempty"`
	DirectKey    string        `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	LastSeq      int64         `json:"last_seq"`
}

// HasParticipant reports whether the user is an enumerated participant.
func (t *Thread) HasParticipant(userID string) bool {
	for _, p := range t.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// ParticipantIDs returns the enumerated participant ids.
func (t *Thread) ParticipantIDs() []string {
	ids := make([]string, 0, len(t.Participants))
	for _, p := range t.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// HasRole reports whether any enumerated participant holds the role.
func (t *Thread) HasRole(role actor.Role) bool {
	for _, p := range t.Participants {
		if p.Role == role {
			return true
		}
	}
	return false
}

// Supervised reports whether the thread is a direct conversation between a
// client and a freelancer with no admin present. Admins oversee such
// threads by role, as they do project threads.
func (t *Thread) Supervised() bool {
	return t.Type == TypeDirect &&
		t.HasRole(actor.RoleClient) &&
		t.HasRole(actor.RoleFreelancer) &&
		!t.HasRole(actor.RoleAdmin)
}

// ProjectIDValue returns the project id or "" for direct threads.
func (t *Thread) ProjectIDValue() string {
	if t.ProjectID == nil {
		return ""
	}
	return *t.ProjectID
}

// NormalizeParticipants sorts and deduplicates user ids, dropping blanks.
func NormalizeParticipants(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DirectKey is the lookup key of a direct thread: its normalized
// participant set.
func DirectKey(ids []string) string {
	return strings.Join(NormalizeParticipants(ids), ",")
}
