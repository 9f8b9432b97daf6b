package actor

// Action is something a role may be permitted to do.
type Action string

const (
	ActionSend                 Action = "send"
	ActionRead                 Action = "read"
	ActionModerate             Action = "moderate"
	ActionDeleteMessage        Action = "delete_message"
	ActionResolveProjectThread Action = "resolve_project_thread"
	ActionResolveDirectThread  Action = "resolve_direct_thread"
	ActionManageDirectory      Action = "manage_directory"
)

var permissions = map[Role]map[Action]bool{
	RoleAdmin: {
		ActionSend:                 true,
		ActionRead:                 true,
		ActionModerate:             true,
		ActionDeleteMessage:        true,
		ActionResolveProjectThread: true,
		ActionResolveDirectThread:  true,
		ActionManageDirectory:      true,
	},
	RoleClient: {
		ActionSend:                 true,
		ActionRead:                 true,
		ActionResolveProjectThread: true,
		ActionResolveDirectThread:  true,
	},
	RoleFreelancer: {
		ActionSend:                 true,
		ActionRead:                 true,
		ActionResolveProjectThread: true,
		ActionResolveDirectThread:  true,
	},
}

// Can consults the role permission table.
func Can(role Role, action Action) bool {
	return permissions[role][action]
}
