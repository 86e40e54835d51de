// Package access computes the single authoritative permission decision
// for a (subject, document) pair from ownership, direct grants, and
// group grants, and maps roles to permitted actions.
package access

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/docuforge/docuvault/pkg/models"
)

// EffectiveRole resolves the highest role the user holds on the
// document. The bool result is false when the user has no access;
// absence of access is a normal outcome, not an error.
//
// Candidates come from three disjoint sources, each filtered to
// non-expired entries at call time: ownership, a direct user grant,
// and grants to any of the user's groups. Conflicts resolve by
// highest-privilege-wins through a commutative max-reduction, so the
// order the grants are discovered in can never change the result.
func EffectiveRole(db *gorm.DB, user *models.User, doc *models.Document) (models.Role, bool, error) {
	if user == nil {
		return "", false, nil
	}

	// Administrative override short-circuits all other evaluation.
	if user.IsAdmin {
		return models.RoleOwner, true, nil
	}

	var candidates []models.Role

	if doc.OwnerID == user.ID {
		candidates = append(candidates, models.RoleOwner)
	}

	direct, err := models.ActiveUserGrant(db, doc.ID, user.SubjectID())
	if err != nil {
		return "", false, fmt.Errorf("error querying direct grant: %w", err)
	}
	if direct != nil {
		candidates = append(candidates, direct.Role)
	}

	groupGrants, err := models.ActiveGroupGrants(db, doc.ID, user.GroupIDs())
	if err != nil {
		return "", false, fmt.Errorf("error querying group grants: %w", err)
	}
	for _, g := range groupGrants {
		candidates = append(candidates, g.Role)
	}

	role, ok := models.MaxRole(candidates...)
	return role, ok, nil
}

// HasAccess reports whether the user holds any role on the document.
func HasAccess(db *gorm.DB, user *models.User, doc *models.Document) (bool, error) {
	_, ok, err := EffectiveRole(db, user, doc)
	return ok, err
}
