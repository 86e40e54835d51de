package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Level(t *testing.T) {
	assert.Equal(t, 3, RoleOwner.Level())
	assert.Equal(t, 2, RoleEditor.Level())
	assert.Equal(t, 1, RoleViewer.Level())
	assert.Equal(t, 0, Role("SUPERUSER").Level())
	assert.Equal(t, 0, Role("").Level())
}

func TestMaxRole(t *testing.T) {
	t.Run("returns highest role", func(t *testing.T) {
		role, ok := MaxRole(RoleViewer, RoleOwner, RoleEditor)
		assert.True(t, ok)
		assert.Equal(t, RoleOwner, role)
	})

	t.Run("is commutative", func(t *testing.T) {
		a, okA := MaxRole(RoleViewer, RoleEditor)
		b, okB := MaxRole(RoleEditor, RoleViewer)
		assert.True(t, okA)
		assert.True(t, okB)
		assert.Equal(t, a, b)
	})

	t.Run("no candidates means no role", func(t *testing.T) {
		_, ok := MaxRole()
		assert.False(t, ok)
	})

	t.Run("unknown roles never grant access", func(t *testing.T) {
		_, ok := MaxRole(Role("SUPERUSER"), Role(""))
		assert.False(t, ok)
	})

	t.Run("unknown roles lose to valid ones", func(t *testing.T) {
		role, ok := MaxRole(Role("SUPERUSER"), RoleViewer)
		assert.True(t, ok)
		assert.Equal(t, RoleViewer, role)
	})
}

func TestAction_IsValid(t *testing.T) {
	assert.True(t, ActionView.IsValid())
	assert.True(t, ActionExport.IsValid())
	assert.False(t, Action("READ").IsValid())
}

func TestSubjectType_IsValid(t *testing.T) {
	assert.True(t, SubjectUser.IsValid())
	assert.True(t, SubjectGroup.IsValid())
	assert.True(t, SubjectShareLink.IsValid())
	assert.False(t, SubjectType("team").IsValid())
}
