// internal/domain/models.go
package domain

// Identity is the resolved caller for one request. It is produced by the
// authentication middleware from the bearer token and never mutated.
type Identity struct {
	UserID  string
	GroupID string
}

// Action enumerates the four operations a permission row governs.
type Action int

const (
	ActionView Action = iota
	ActionCreate
	ActionEdit
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionCreate:
		return "create"
	case ActionEdit:
		return "edit"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// PermissionLevel is the effective right a group holds on a table action.
// The integer values match the permissions table storage encoding.
type PermissionLevel int

const (
	PermissionNone PermissionLevel = iota
	PermissionGroup
	PermissionOwner
	PermissionAll
)

func (l PermissionLevel) String() string {
	switch l {
	case PermissionNone:
		return "none"
	case PermissionGroup:
		return "group"
	case PermissionOwner:
		return "owner"
	case PermissionAll:
		return "all"
	}
	return "unknown"
}
