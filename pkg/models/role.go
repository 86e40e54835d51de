package models

// Role is the permission level a subject holds on a document.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

// Level returns the privilege rank of the role for conflict
// resolution. Higher wins. Unknown roles rank zero so they can never
// grant anything.
func (r Role) Level() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether r is one of the three defined roles.
func (r Role) IsValid() bool {
	return r.Level() > 0
}

// MaxRole reduces a set of candidate roles to the highest-privilege
// one. The reduction is commutative: discovery order never affects the
// result. ok is false when no valid candidate was supplied.
func MaxRole(roles ...Role) (max Role, ok bool) {
	for _, r := range roles {
		if r.Level() > max.Level() {
			max = r
		}
	}
	return max, max.IsValid()
}

// Action is an operation a subject can attempt on a document.
type Action string

const (
	ActionView   Action = "VIEW"
	ActionEdit   Action = "EDIT"
	ActionShare  Action = "SHARE"
	ActionExport Action = "EXPORT"
)

// Audit-only actions. These never appear in the capability table;
// delete authorization is decided separately and restore/revoke are
// audited forms of edit and share.
const (
	ActionDelete  Action = "DELETE"
	ActionRestore Action = "RESTORE"
	ActionRevoke  Action = "REVOKE"
)

// IsValid reports whether a is a defined action.
func (a Action) IsValid() bool {
	switch a {
	case ActionView, ActionEdit, ActionShare, ActionExport:
		return true
	default:
		return false
	}
}

// SubjectType identifies what kind of principal a grant targets.
type SubjectType string

const (
	SubjectUser      SubjectType = "user"
	SubjectGroup     SubjectType = "group"
	SubjectShareLink SubjectType = "share_link"
)

// IsValid reports whether s is a defined subject type.
func (s SubjectType) IsValid() bool {
	switch s {
	case SubjectUser, SubjectGroup, SubjectShareLink:
		return true
	default:
		return false
	}
}
