package access

import (
	"gorm.io/gorm"

	"github.com/docuforge/docuvault/pkg/models"
)

// capabilities is the static role/action table. Fixed at compile time,
// not configurable at runtime.
var capabilities = map[models.Role]map[models.Action]bool{
	models.RoleOwner: {
		models.ActionView:   true,
		models.ActionEdit:   true,
		models.ActionShare:  true,
		models.ActionExport: true,
	},
	models.RoleEditor: {
		models.ActionView:   true,
		models.ActionEdit:   true,
		models.ActionExport: true,
	},
	models.RoleViewer: {
		models.ActionView:   true,
		models.ActionExport: true,
	},
}

// RoleAllows reports whether a role permits an action, without
// touching storage. Useful when the role is already resolved (share
// link access).
func RoleAllows(role models.Role, action models.Action) bool {
	return capabilities[role][action]
}

// CanPerform reports whether the user may perform the action on the
// document, based on their effective role. False covers both "no
// access" and "role too low"; neither is an error.
func CanPerform(db *gorm.DB, user *models.User, doc *models.Document, action models.Action) (bool, error) {
	role, ok, err := EffectiveRole(db, user, doc)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return RoleAllows(role, action), nil
}

// CanDelete reports whether the user may delete the document. Deletion
// is stricter than the capability table: only an effective role of
// exactly OWNER (which includes the administrative override) passes;
// EDITOR and VIEWER are always denied.
func CanDelete(db *gorm.DB, user *models.User, doc *models.Document) (bool, error) {
	role, ok, err := EffectiveRole(db, user, doc)
	if err != nil {
		return false, err
	}
	return ok && role == models.RoleOwner, nil
}
