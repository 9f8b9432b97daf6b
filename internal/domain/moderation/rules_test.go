package moderation_test

import (
	"testing"

	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/moderation"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/stretchr/testify/require"
)

func directThread(roles ...actor.Role) *thread.Thread {
	t := &thread.Thread{ID: "d1", Type: thread.TypeDirect}
	for i, r := range roles {
		t.Participants = append(t.Participants, thread.Participant{UserID: string(rune('a' + i)), Role: r})
	}
	return t
}

func TestRequiresApproval(t *testing.T) {
	tests := []struct {
		name   string
		thread *thread.Thread
		sender actor.Role
		want   bool
	}{
		{"admin in three-way", &thread.Thread{Type: thread.TypeClientAdminFreelancer}, actor.RoleAdmin, false},
		{"client in three-way", &thread.Thread{Type: thread.TypeClientAdminFreelancer}, actor.RoleClient, true},
		{"freelancer in three-way", &thread.Thread{Type: thread.TypeClientAdminFreelancer}, actor.RoleFreelancer, true},
		{"client in admin-client", &thread.Thread{Type: thread.TypeAdminClient}, actor.RoleClient, false},
		{"freelancer in admin-freelancer", &thread.Thread{Type: thread.TypeAdminFreelancer}, actor.RoleFreelancer, false},
		{"direct client-freelancer", directThread(actor.RoleClient, actor.RoleFreelancer), actor.RoleClient, true},
		{"direct with admin present", directThread(actor.RoleClient, actor.RoleFreelancer, actor.RoleAdmin), actor.RoleFreelancer, false},
		{"direct admin sender", directThread(actor.RoleClient, actor.RoleFreelancer), actor.RoleAdmin, false},
		{"direct client-client", directThread(actor.RoleClient, actor.RoleClient), actor.RoleClient, false},
		{"direct client-admin", directThread(actor.RoleClient, actor.RoleAdmin), actor.RoleClient, false},
		{"nil thread", nil, actor.RoleClient, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, moderation.RequiresApproval(tt.thread, tt.sender))
		})
	}
}
