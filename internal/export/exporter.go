// Package export writes document snapshots to a filesystem for
// download.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/docuforge/docuvault/pkg/errs"
	"github.com/docuforge/docuvault/pkg/models"
)

// Exporter writes document exports to a filesystem. The filesystem is
// abstracted so tests run against an in-memory one.
type Exporter struct {
	fs     afero.Fs
	dir    string
	db     *gorm.DB
	logger hclog.Logger
}

// NewExporter creates an exporter rooted at dir.
func NewExporter(fs afero.Fs, dir string, db *gorm.DB, logger hclog.Logger) *Exporter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Exporter{fs: fs, dir: dir, db: db, logger: logger.Named("export")}
}

// payload is the exported file format.
type payload struct {
	DocumentID uint      `json:"document_id"`
	Title      string    `json:"title"`
	VersionNo  int       `json:"version_no"`
	HTML       string    `json:"html"`
	Text       string    `json:"text"`
	ExportedAt time.Time `json:"exported_at"`
}

// ExportDocument writes the current content of a document and returns
// the written path.
func (e *Exporter) ExportDocument(ctx context.Context, documentID uint) (string, error) {
	doc := models.Document{ID: documentID}
	if err := doc.Get(e.db.WithContext(ctx)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.NotFound("document %d", documentID)
		}
		return "", fmt.Errorf("error getting document: %w", err)
	}
	return e.write(payload{
		DocumentID: doc.ID,
		Title:      doc.Title,
		VersionNo:  doc.CurrentVersionNo,
		HTML:       doc.HTML,
		Text:       doc.Text,
		ExportedAt: time.Now(),
	})
}

// ExportVersion writes a specific historical version of a document and
// returns the written path.
func (e *Exporter) ExportVersion(ctx context.Context, documentID uint, versionNo int) (string, error) {
	doc := models.Document{ID: documentID}
	if err := doc.Get(e.db.WithContext(ctx)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.NotFound("document %d", documentID)
		}
		return "", fmt.Errorf("error getting document: %w", err)
	}

	var v models.DocumentVersion
	if err := v.GetByVersionNo(e.db.WithContext(ctx), documentID, versionNo); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.NotFound("version %d of document %d", versionNo, documentID)
		}
		return "", fmt.Errorf("error getting version: %w", err)
	}
	return e.write(payload{
		DocumentID: doc.ID,
		Title:      doc.Title,
		VersionNo:  v.VersionNo,
		HTML:       v.HTML,
		Text:       v.Text,
		ExportedAt: time.Now(),
	})
}

func (e *Exporter) write(p payload) (string, error) {
	if err := e.fs.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	name := fmt.Sprintf("document-%d-v%d-%d.json",
		p.DocumentID, p.VersionNo, p.ExportedAt.Unix())
	path := filepath.Join(e.dir, name)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshaling export: %w", err)
	}
	if err := afero.WriteFile(e.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("error writing export: %w", err)
	}

	e.logger.Info("document exported",
		"document_id", p.DocumentID, "version_no", p.VersionNo, "path", path)
	return path, nil
}
