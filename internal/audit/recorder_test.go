package audit

import (
	"context"
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

func TestRecorder_Record(t *testing.T) {
	t.Run("writes a record with server-side timestamp", func(t *testing.T) {
		db := newTestDB(t)
		r := NewRecorder(db, nil)

		docID := uint(7)
		actorID := uint(3)
		before := time.Now()
		r.Record(context.Background(), Event{
			Action:      models.ActionView,
			ActorUserID: &actorID,
			DocumentID:  &docID,
			IP:          "203.0.113.9",
			UserAgent:   "test-agent",
			Context:     map[string]interface{}{"source": "test"},
		})

		trail, err := r.DocumentTrail(context.Background(), docID, 0)
		require.NoError(t, err)
		require.Len(t, trail, 1)
		assert.Equal(t, models.ActionView, trail[0].Action)
		assert.Equal(t, "203.0.113.9", trail[0].IP)
		assert.False(t, trail[0].TS.Before(before.Add(-time.Second)))
	})

	t.Run("persistence failure is swallowed", func(t *testing.T) {
		db := newTestDB(t)
		r := NewRecorder(db, nil)

		require.NoError(t, db.Migrator().DropTable(&models.AuditLog{}))

		docID := uint(7)
		// Must not panic or surface anything.
		r.Record(context.Background(), Event{
			Action:     models.ActionView,
			DocumentID: &docID,
		})
	})
}

func TestRecorder_DocumentTrail(t *testing.T) {
	db := newTestDB(t)
	r := NewRecorder(db, nil)
	ctx := context.Background()
	docID := uint(1)

	for i := 0; i < 3; i++ {
		rec := models.AuditLog{
			Action:     models.ActionEdit,
			DocumentID: &docID,
			TS:         time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, rec.Create(db))
	}

	trail, err := r.DocumentTrail(ctx, docID, 0)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	// Newest first.
	assert.True(t, trail[0].TS.After(trail[2].TS))

	limited, err := r.DocumentTrail(ctx, docID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRecorder_EventsSince(t *testing.T) {
	seed := func(t *testing.T, db *gorm.DB, docID uint, actorID *uint, ts time.Time) {
		t.Helper()
		rec := models.AuditLog{
			Action:      models.ActionEdit,
			ActorUserID: actorID,
			DocumentID:  &docID,
			TS:          ts,
		}
		require.NoError(t, rec.Create(db))
	}

	t.Run("returns events strictly after since, oldest first", func(t *testing.T) {
		db := newTestDB(t)
		r := NewRecorder(db, nil)
		ctx := context.Background()
		docID := uint(1)
		base := time.Now().Add(-time.Hour)

		seed(t, db, docID, nil, base)
		seed(t, db, docID, nil, base.Add(time.Minute))
		seed(t, db, docID, nil, base.Add(2*time.Minute))

		events, hasMore, err := r.EventsSince(ctx, docID, base, nil)
		require.NoError(t, err)
		assert.False(t, hasMore)
		require.Len(t, events, 2)
		assert.True(t, events[0].TS.Before(events[1].TS))
	})

	t.Run("excludes the polling actor's own events", func(t *testing.T) {
		db := newTestDB(t)
		r := NewRecorder(db, nil)
		ctx := context.Background()
		docID := uint(1)
		me := uint(5)
		other := uint(6)
		base := time.Now().Add(-time.Hour)

		seed(t, db, docID, &me, base.Add(time.Minute))
		seed(t, db, docID, &other, base.Add(2*time.Minute))
		seed(t, db, docID, nil, base.Add(3*time.Minute))

		events, _, err := r.EventsSince(ctx, docID, base, &me)
		require.NoError(t, err)
		require.Len(t, events, 2)
		for _, ev := range events {
			if ev.ActorUserID != nil {
				assert.NotEqual(t, me, *ev.ActorUserID)
			}
		}
	})

	t.Run("caps the page and signals more", func(t *testing.T) {
		db := newTestDB(t)
		r := NewRecorder(db, nil)
		ctx := context.Background()
		docID := uint(1)
		base := time.Now().Add(-time.Hour)

		for i := 0; i < pollPageSize+5; i++ {
			seed(t, db, docID, nil, base.Add(time.Duration(i+1)*time.Second))
		}

		events, hasMore, err := r.EventsSince(ctx, docID, base, nil)
		require.NoError(t, err)
		assert.Len(t, events, pollPageSize)
		assert.True(t, hasMore)

		// Next page picks up from the last watermark.
		next, hasMore, err := r.EventsSince(
			ctx, docID, events[len(events)-1].TS, nil)
		require.NoError(t, err)
		assert.False(t, hasMore)
		assert.Len(t, next, 5)
	})
}
