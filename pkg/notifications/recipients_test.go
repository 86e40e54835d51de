package notifications

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/docuforge/docuvault/pkg/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.ModelsToAutoMigrate()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := models.User{EmailAddress: email}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func grantSubject(
	t *testing.T, db *gorm.DB, docID uint, st models.SubjectType, sid string,
) {
	t.Helper()
	g := models.Grant{
		DocumentID:  docID,
		SubjectType: st,
		SubjectID:   sid,
		Role:        models.RoleViewer,
	}
	require.NoError(t, db.Create(&g).Error)
}

func recipientEmails(rs []Recipient) []string {
	emails := make([]string, 0, len(rs))
	for _, r := range rs {
		emails = append(emails, r.Email)
	}
	return emails
}

func TestRecipientsForDocument(t *testing.T) {
	t.Run("owner, grantees, and group members, deduplicated", func(t *testing.T) {
		db := newTestDB(t)

		owner := createUser(t, db, "owner@example.com")
		direct := createUser(t, db, "direct@example.com")
		member := createUser(t, db, "member@example.com")

		doc := models.Document{Title: "Plan", OwnerID: owner.ID, CurrentVersionNo: 1}
		require.NoError(t, doc.Create(db))

		group := models.Group{Name: "reviewers"}
		require.NoError(t, db.Create(&group).Error)
		require.NoError(t, group.AddMember(db, member))
		// direct is both directly granted and a group member; they must
		// appear once.
		require.NoError(t, group.AddMember(db, direct))

		grantSubject(t, db, doc.ID, models.SubjectUser, direct.SubjectID())
		grantSubject(t, db, doc.ID, models.SubjectGroup,
			strconv.FormatUint(uint64(group.ID), 10))

		rs, err := RecipientsForDocument(db, &doc, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t,
			[]string{"owner@example.com", "direct@example.com", "member@example.com"},
			recipientEmails(rs))
	})

	t.Run("the actor is excluded", func(t *testing.T) {
		db := newTestDB(t)

		owner := createUser(t, db, "owner@example.com")
		direct := createUser(t, db, "direct@example.com")

		doc := models.Document{Title: "Plan", OwnerID: owner.ID, CurrentVersionNo: 1}
		require.NoError(t, doc.Create(db))
		grantSubject(t, db, doc.ID, models.SubjectUser, direct.SubjectID())

		rs, err := RecipientsForDocument(db, &doc, &owner.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"direct@example.com"}, recipientEmails(rs))
	})

	t.Run("share link grants do not receive notifications", func(t *testing.T) {
		db := newTestDB(t)

		owner := createUser(t, db, "owner@example.com")
		doc := models.Document{Title: "Plan", OwnerID: owner.ID, CurrentVersionNo: 1}
		require.NoError(t, doc.Create(db))
		grantSubject(t, db, doc.ID, models.SubjectShareLink,
			"2a1f3c60-0000-0000-0000-000000000000")

		rs, err := RecipientsForDocument(db, &doc, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"owner@example.com"}, recipientEmails(rs))
	})

	t.Run("no recipients when the actor is the only subject", func(t *testing.T) {
		db := newTestDB(t)

		owner := createUser(t, db, "owner@example.com")
		doc := models.Document{Title: "Plan", OwnerID: owner.ID, CurrentVersionNo: 1}
		require.NoError(t, doc.Create(db))

		rs, err := RecipientsForDocument(db, &doc, &owner.ID)
		require.NoError(t, err)
		assert.Empty(t, rs)
	})
}
