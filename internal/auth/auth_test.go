package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuforge/docuvault/pkg/errs"
)

func TestSessions(t *testing.T) {
	t.Run("issue and validate round trip", func(t *testing.T) {
		s, err := NewSessions("test-secret", time.Hour)
		require.NoError(t, err)

		token, err := s.Issue("user@example.com")
		require.NoError(t, err)

		email, err := s.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", email)
	})

	t.Run("empty secret is rejected", func(t *testing.T) {
		_, err := NewSessions("", time.Hour)
		assert.Error(t, err)
	})

	t.Run("expired token is unauthenticated", func(t *testing.T) {
		s, err := NewSessions("test-secret", time.Nanosecond)
		require.NoError(t, err)

		token, err := s.Issue("user@example.com")
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		_, err = s.Validate(token)
		assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	})

	t.Run("token signed with another secret fails", func(t *testing.T) {
		a, err := NewSessions("secret-a", time.Hour)
		require.NoError(t, err)
		b, err := NewSessions("secret-b", time.Hour)
		require.NoError(t, err)

		token, err := a.Issue("user@example.com")
		require.NoError(t, err)

		_, err = b.Validate(token)
		assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	})

	t.Run("garbage token fails", func(t *testing.T) {
		s, err := NewSessions("test-secret", time.Hour)
		require.NoError(t, err)
		_, err = s.Validate("not-a-jwt")
		assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	})
}
