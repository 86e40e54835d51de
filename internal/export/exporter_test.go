package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
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

func newTestExporter(t *testing.T) (*Exporter, afero.Fs, *gorm.DB, *models.Document) {
	t.Helper()
	db := newTestDB(t)
	fs := afero.NewMemMapFs()

	u := models.User{EmailAddress: "owner@example.com"}
	require.NoError(t, db.Create(&u).Error)
	doc := models.Document{
		Title: "Quarterly Report", HTML: "<p>current</p>", Text: "current",
		OwnerID: u.ID, CurrentVersionNo: 2,
	}
	require.NoError(t, doc.Create(db))
	v1 := models.DocumentVersion{
		DocumentID: doc.ID, VersionNo: 1, HTML: "<p>old</p>", Text: "old",
	}
	require.NoError(t, db.Create(&v1).Error)

	return NewExporter(fs, "exports", db, nil), fs, db, &doc
}

func TestExportDocument(t *testing.T) {
	t.Run("writes the current content", func(t *testing.T) {
		e, fs, _, doc := newTestExporter(t)

		path, err := e.ExportDocument(context.Background(), doc.ID)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(path, "exports/"))

		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)

		var p map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &p))
		assert.Equal(t, "Quarterly Report", p["title"])
		assert.Equal(t, "<p>current</p>", p["html"])
		assert.Equal(t, float64(2), p["version_no"])
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		e, _, _, _ := newTestExporter(t)
		_, err := e.ExportDocument(context.Background(), 9999)
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestExportVersion(t *testing.T) {
	t.Run("writes a historical version", func(t *testing.T) {
		e, fs, _, doc := newTestExporter(t)

		path, err := e.ExportVersion(context.Background(), doc.ID, 1)
		require.NoError(t, err)

		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)

		var p map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &p))
		assert.Equal(t, "<p>old</p>", p["html"])
		assert.Equal(t, float64(1), p["version_no"])
	})

	t.Run("unknown version is not found", func(t *testing.T) {
		e, _, _, doc := newTestExporter(t)
		_, err := e.ExportVersion(context.Background(), doc.ID, 42)
		assert.True(t, errs.IsNotFound(err))
	})
}
