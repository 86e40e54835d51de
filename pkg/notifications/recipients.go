package notifications

import (
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/docuforge/docuvault/pkg/models"
)

// RecipientsForDocument computes who should hear about a change to a
// document: the owner, every directly granted user, and every member
// of every granted group, deduplicated and always excluding the actor
// who caused the change.
func RecipientsForDocument(
	db *gorm.DB, doc *models.Document, actorUserID *uint,
) ([]Recipient, error) {
	seen := make(map[uint]bool)
	if actorUserID != nil {
		seen[*actorUserID] = true
	}

	var userIDs []uint
	if !seen[doc.OwnerID] {
		seen[doc.OwnerID] = true
		userIDs = append(userIDs, doc.OwnerID)
	}

	var grants models.Grants
	if err := grants.FindByDocument(db, doc.ID); err != nil {
		return nil, fmt.Errorf("error listing grants: %w", err)
	}
	for _, g := range grants {
		switch g.SubjectType {
		case models.SubjectUser:
			id, err := strconv.ParseUint(g.SubjectID, 10, 64)
			if err != nil {
				continue
			}
			if uid := uint(id); !seen[uid] {
				seen[uid] = true
				userIDs = append(userIDs, uid)
			}
		case models.SubjectGroup:
			id, err := strconv.ParseUint(g.SubjectID, 10, 64)
			if err != nil {
				continue
			}
			group := models.Group{ID: uint(id)}
			members, err := group.Members(db)
			if err != nil {
				return nil, fmt.Errorf("error listing group members: %w", err)
			}
			for _, m := range members {
				if !seen[m.ID] {
					seen[m.ID] = true
					userIDs = append(userIDs, m.ID)
				}
			}
		}
	}

	if len(userIDs) == 0 {
		return nil, nil
	}

	var users []models.User
	if err := db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("error loading recipients: %w", err)
	}

	recipients := make([]Recipient, 0, len(users))
	for _, u := range users {
		recipients = append(recipients, Recipient{
			UserID: u.SubjectID(),
			Email:  u.EmailAddress,
			Name:   u.DisplayName,
		})
	}
	return recipients, nil
}
