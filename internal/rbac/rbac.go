// Package rbac decides what a caller may do inside a space.
package rbac

type Role string
type Action string

const (
	RoleOutsider Role = "outsider"
	RoleMember   Role = "member"
	RoleAdmin    Role = "admin"
)

const (
	ActionRead     Action = "read"
	ActionPost     Action = "post"
	ActionShare    Action = "share"
	ActionLeave    Action = "leave"
	ActionModerate Action = "moderate"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		// the admin cannot leave their own space
		return action != ActionLeave
	case RoleMember:
		return action == ActionRead || action == ActionPost || action == ActionShare || action == ActionLeave
	default:
		return false
	}
}

// CanRead reports whether role may read a space's members, shared content
// and messages. Public spaces are readable by everyone.
func CanRead(role Role, isPublic bool) bool {
	return isPublic || Can(role, ActionRead)
}

// Normalize maps a stored membership role to a Role. Only approved rows
// should be passed; anything unrecognized is an outsider.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleMember, RoleAdmin:
		return Role(role)
	default:
		return RoleOutsider
	}
}
