package versions

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/docuforge/docuvault/pkg/errs"
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

func newTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewLedger(db, nil), db
}

func createTestDocument(t *testing.T, l *Ledger, db *gorm.DB) *models.Document {
	t.Helper()
	u := models.User{EmailAddress: "author@example.com"}
	require.NoError(t, db.Create(&u).Error)
	doc := models.Document{
		Title:   "Test Document",
		HTML:    "<p>v1</p>",
		Text:    "v1",
		OwnerID: u.ID,
	}
	require.NoError(t, l.CreateDocument(context.Background(), &doc, &u.ID))
	return &doc
}

func TestLedger_CreateDocument(t *testing.T) {
	l, db := newTestLedger(t)
	doc := createTestDocument(t, l, db)

	assert.Equal(t, 1, doc.CurrentVersionNo)

	v, err := l.Version(context.Background(), doc.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "<p>v1</p>", v.HTML)
	assert.Equal(t, "Initial version", v.ChangeNote)
}

func TestLedger_Append(t *testing.T) {
	t.Run("advances pointer and content together", func(t *testing.T) {
		l, db := newTestLedger(t)
		doc := createTestDocument(t, l, db)

		v, err := l.Append(context.Background(), doc.ID,
			Content{HTML: "<p>v2</p>", Text: "v2"}, nil, "edit")
		require.NoError(t, err)
		assert.Equal(t, 2, v.VersionNo)

		require.NoError(t, doc.Get(db))
		assert.Equal(t, 2, doc.CurrentVersionNo)
		assert.Equal(t, "<p>v2</p>", doc.HTML)
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		l, _ := newTestLedger(t)
		_, err := l.Append(context.Background(), 9999,
			Content{HTML: "<p>x</p>"}, nil, "")
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("concurrent appends get distinct contiguous numbers", func(t *testing.T) {
		l, db := newTestLedger(t)
		doc := createTestDocument(t, l, db)

		const n = 10
		var wg sync.WaitGroup
		errCh := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := l.Append(context.Background(), doc.ID,
					Content{HTML: fmt.Sprintf("<p>edit %d</p>", i)}, nil, "")
				errCh <- err
			}(i)
		}
		wg.Wait()
		close(errCh)
		for err := range errCh {
			require.NoError(t, err)
		}

		history, err := l.History(context.Background(), doc.ID)
		require.NoError(t, err)
		require.Len(t, history, n+1)

		// Newest first, contiguous from n+1 down to 1, no gaps or
		// duplicates.
		for i, v := range history {
			assert.Equal(t, n+1-i, v.VersionNo)
		}

		require.NoError(t, doc.Get(db))
		assert.Equal(t, n+1, doc.CurrentVersionNo)
	})
}

func TestLedger_Restore(t *testing.T) {
	t.Run("restores as a new version without touching the target", func(t *testing.T) {
		l, db := newTestLedger(t)
		doc := createTestDocument(t, l, db)

		_, err := l.Append(context.Background(), doc.ID,
			Content{HTML: "<p>v2</p>", Text: "v2"}, nil, "edit")
		require.NoError(t, err)

		restored, err := l.Restore(context.Background(), doc.ID, 1, nil, "")
		require.NoError(t, err)

		assert.Equal(t, 3, restored.VersionNo)
		assert.Equal(t, "<p>v1</p>", restored.HTML)
		assert.Contains(t, restored.ChangeNote, "restored from version 1")

		// Target version is untouched.
		v1, err := l.Version(context.Background(), doc.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, "<p>v1</p>", v1.HTML)
		assert.Equal(t, "Initial version", v1.ChangeNote)

		// Document now carries the restored content.
		require.NoError(t, doc.Get(db))
		assert.Equal(t, 3, doc.CurrentVersionNo)
		assert.Equal(t, "<p>v1</p>", doc.HTML)
	})

	t.Run("missing target version is not found", func(t *testing.T) {
		l, db := newTestLedger(t)
		doc := createTestDocument(t, l, db)

		_, err := l.Restore(context.Background(), doc.ID, 42, nil, "")
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("restoring the current version still appends", func(t *testing.T) {
		l, db := newTestLedger(t)
		doc := createTestDocument(t, l, db)

		restored, err := l.Restore(context.Background(), doc.ID, 1, nil, "")
		require.NoError(t, err)
		assert.Equal(t, 2, restored.VersionNo)

		require.NoError(t, doc.Get(db))
		assert.Equal(t, 2, doc.CurrentVersionNo)
	})
}

func TestLedger_History(t *testing.T) {
	l, db := newTestLedger(t)
	doc := createTestDocument(t, l, db)

	for i := 2; i <= 4; i++ {
		_, err := l.Append(context.Background(), doc.ID,
			Content{HTML: fmt.Sprintf("<p>v%d</p>", i)}, nil, "")
		require.NoError(t, err)
	}

	history, err := l.History(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, 4, history[0].VersionNo)
	assert.Equal(t, 1, history[3].VersionNo)
}

func TestLedger_Version_NotFound(t *testing.T) {
	l, db := newTestLedger(t)
	doc := createTestDocument(t, l, db)

	_, err := l.Version(context.Background(), doc.ID, 2)
	assert.True(t, errs.IsNotFound(err))
}
