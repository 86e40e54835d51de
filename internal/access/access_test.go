package access

import (
	"fmt"
	"strings"
	"testing"
	"time"

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

func createUser(t *testing.T, db *gorm.DB, email string, admin bool) *models.User {
	t.Helper()
	u := models.User{EmailAddress: email, IsAdmin: admin}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func createDocument(t *testing.T, db *gorm.DB, owner *models.User) *models.Document {
	t.Helper()
	doc := models.Document{Title: "Test Document", OwnerID: owner.ID}
	require.NoError(t, doc.Create(db))
	return &doc
}

func grantUser(
	t *testing.T, db *gorm.DB, doc *models.Document, u *models.User,
	role models.Role, expiresAt *time.Time,
) {
	t.Helper()
	g := models.Grant{
		DocumentID:  doc.ID,
		SubjectType: models.SubjectUser,
		SubjectID:   u.SubjectID(),
		Role:        role,
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, g.Upsert(db))
}

func TestEffectiveRole(t *testing.T) {
	t.Run("nil user has no access", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		doc := createDocument(t, db, owner)

		_, ok, err := EffectiveRole(db, nil, doc)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("owner resolves to OWNER", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		doc := createDocument(t, db, owner)

		role, ok, err := EffectiveRole(db, owner, doc)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, models.RoleOwner, role)
	})

	t.Run("stranger has no access", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		stranger := createUser(t, db, "stranger@example.com", false)
		doc := createDocument(t, db, owner)

		_, ok, err := EffectiveRole(db, stranger, doc)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("admin overrides to OWNER without any grant", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		admin := createUser(t, db, "admin@example.com", true)
		doc := createDocument(t, db, owner)

		role, ok, err := EffectiveRole(db, admin, doc)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, models.RoleOwner, role)
	})

	t.Run("direct grant resolves", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		editor := createUser(t, db, "editor@example.com", false)
		doc := createDocument(t, db, owner)
		grantUser(t, db, doc, editor, models.RoleEditor, nil)

		role, ok, err := EffectiveRole(db, editor, doc)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, models.RoleEditor, role)
	})

	t.Run("highest of overlapping grants wins", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		member := createUser(t, db, "member@example.com", false)
		doc := createDocument(t, db, owner)

		group := models.Group{Name: "writers"}
		require.NoError(t, db.Create(&group).Error)
		require.NoError(t, group.AddMember(db, member))

		// Direct VIEWER, group EDITOR: EDITOR wins.
		grantUser(t, db, doc, member, models.RoleViewer, nil)
		g := models.Grant{
			DocumentID:  doc.ID,
			SubjectType: models.SubjectGroup,
			SubjectID:   fmt.Sprintf("%d", group.ID),
			Role:        models.RoleEditor,
		}
		require.NoError(t, g.Upsert(db))

		require.NoError(t, member.Get(db))
		role, ok, err := EffectiveRole(db, member, doc)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, models.RoleEditor, role)
	})

	t.Run("ownership beats a lower direct grant", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		doc := createDocument(t, db, owner)
		grantUser(t, db, doc, owner, models.RoleViewer, nil)

		role, ok, err := EffectiveRole(db, owner, doc)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, models.RoleOwner, role)
	})

	t.Run("expired grant contributes nothing", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		viewer := createUser(t, db, "viewer@example.com", false)
		doc := createDocument(t, db, owner)

		past := time.Now().Add(-time.Hour)
		grantUser(t, db, doc, viewer, models.RoleEditor, &past)

		_, ok, err := EffectiveRole(db, viewer, doc)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("future expiry still grants", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		viewer := createUser(t, db, "viewer@example.com", false)
		doc := createDocument(t, db, owner)

		future := time.Now().Add(time.Hour)
		grantUser(t, db, doc, viewer, models.RoleViewer, &future)

		role, ok, err := EffectiveRole(db, viewer, doc)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, models.RoleViewer, role)
	})
}

func TestRoleAllows(t *testing.T) {
	cases := []struct {
		role    models.Role
		action  models.Action
		allowed bool
	}{
		{models.RoleOwner, models.ActionView, true},
		{models.RoleOwner, models.ActionEdit, true},
		{models.RoleOwner, models.ActionShare, true},
		{models.RoleOwner, models.ActionExport, true},
		{models.RoleEditor, models.ActionView, true},
		{models.RoleEditor, models.ActionEdit, true},
		{models.RoleEditor, models.ActionShare, false},
		{models.RoleEditor, models.ActionExport, true},
		{models.RoleViewer, models.ActionView, true},
		{models.RoleViewer, models.ActionEdit, false},
		{models.RoleViewer, models.ActionShare, false},
		{models.RoleViewer, models.ActionExport, true},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_%s", tc.role, tc.action), func(t *testing.T) {
			assert.Equal(t, tc.allowed, RoleAllows(tc.role, tc.action))
		})
	}
}

func TestCanDelete(t *testing.T) {
	t.Run("owner can delete", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		doc := createDocument(t, db, owner)

		ok, err := CanDelete(db, owner, doc)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("admin can delete", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		admin := createUser(t, db, "admin@example.com", true)
		doc := createDocument(t, db, owner)

		ok, err := CanDelete(db, admin, doc)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("editor cannot delete", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		editor := createUser(t, db, "editor@example.com", false)
		doc := createDocument(t, db, owner)
		grantUser(t, db, doc, editor, models.RoleEditor, nil)

		ok, err := CanDelete(db, editor, doc)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("granted OWNER role can delete", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		coOwner := createUser(t, db, "co-owner@example.com", false)
		doc := createDocument(t, db, owner)
		grantUser(t, db, doc, coOwner, models.RoleOwner, nil)

		ok, err := CanDelete(db, coOwner, doc)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("anonymous cannot delete", func(t *testing.T) {
		db := newTestDB(t)
		owner := createUser(t, db, "owner@example.com", false)
		doc := createDocument(t, db, owner)

		ok, err := CanDelete(db, nil, doc)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCanPerform(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner@example.com", false)
	viewer := createUser(t, db, "viewer@example.com", false)
	doc := createDocument(t, db, owner)
	grantUser(t, db, doc, viewer, models.RoleViewer, nil)

	ok, err := CanPerform(db, viewer, doc, models.ActionView)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CanPerform(db, viewer, doc, models.ActionEdit)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = CanPerform(db, nil, doc, models.ActionView)
	require.NoError(t, err)
	assert.False(t, ok)
}
