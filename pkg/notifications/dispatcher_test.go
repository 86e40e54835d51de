package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuforge/docuvault/pkg/notifications/backends"
)

func TestDispatcher_Notify(t *testing.T) {
	t.Run("delivers to routed backends", func(t *testing.T) {
		registry := backends.NewRegistry()
		tb := backends.NewTestBackend()
		require.NoError(t, registry.Register(tb))

		d := NewDispatcher(registry, nil)
		err := d.Notify(context.Background(), &NotificationMessage{
			Type:     NotificationTypeDocumentEdited,
			Subject:  "doc updated",
			Backends: []string{"test"},
			Recipients: []Recipient{
				{Email: "reader@example.com"},
			},
		})
		require.NoError(t, err)

		msgs := tb.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "doc updated", msgs[0].Subject)
		assert.NotEmpty(t, msgs[0].ID)
		assert.False(t, msgs[0].Timestamp.IsZero())
	})

	t.Run("unknown backends are skipped", func(t *testing.T) {
		d := NewDispatcher(backends.NewRegistry(), nil)
		err := d.Notify(context.Background(), &NotificationMessage{
			Type:     NotificationTypeDocumentShared,
			Backends: []string{"smoke-signals"},
		})
		assert.NoError(t, err)
	})

	t.Run("failures aggregate but do not stop delivery", func(t *testing.T) {
		registry := backends.NewRegistry()
		failing := backends.NewTestBackend()
		failing.FailWith(errors.New("smtp down"))
		require.NoError(t, registry.Register(failing))

		log := backends.NewLogBackend(nil)
		require.NoError(t, registry.Register(log))

		d := NewDispatcher(registry, nil)
		err := d.Notify(context.Background(), &NotificationMessage{
			Type:     NotificationTypeAccessRevoked,
			Backends: []string{"test", "log"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "smtp down")
	})
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, NopNotifier{}.Notify(context.Background(), &NotificationMessage{}))
}
