// Package versions maintains the append-only, per-document sequence of
// content snapshots and the document's current-version pointer.
package versions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/docuforge/docuvault/pkg/errs"
	"github.com/docuforge/docuvault/pkg/models"
)

// Content is the opaque payload the ledger snapshots. The ledger never
// interprets it.
type Content struct {
	HTML string
	Text string
}

// Ledger appends immutable document versions and advances the
// document's current_version_no in the same transaction. It trusts its
// callers to have authorized the edit already.
type Ledger struct {
	db     *gorm.DB
	logger hclog.Logger

	// locks serializes appends per document. Cross-process races are
	// caught by the (document_id, version_no) unique index and retried.
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewLedger creates a version ledger.
func NewLedger(db *gorm.DB, logger hclog.Logger) *Ledger {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Ledger{
		db:     db,
		logger: logger.Named("versions"),
		locks:  make(map[uint]*sync.Mutex),
	}
}

func (l *Ledger) lockFor(documentID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[documentID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[documentID] = m
	}
	return m
}

// CreateDocument creates a document together with its version 1 row,
// so the invariant that current_version_no matches the newest ledger
// entry holds from the very first write.
func (l *Ledger) CreateDocument(ctx context.Context, doc *models.Document, authorID *uint) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc.CurrentVersionNo = 1
		if err := doc.Create(tx); err != nil {
			return fmt.Errorf("error creating document: %w", err)
		}
		v := models.DocumentVersion{
			DocumentID: doc.ID,
			VersionNo:  1,
			HTML:       doc.HTML,
			Text:       doc.Text,
			AuthorID:   authorID,
			ChangeNote: "Initial version",
		}
		if err := tx.Create(&v).Error; err != nil {
			return fmt.Errorf("error creating initial version: %w", err)
		}
		return nil
	})
}

// Append writes a new immutable version with number
// current_version_no+1 and atomically advances the document pointer
// and content columns. Concurrent appends on the same document
// serialize here; two concurrent edits can never share a version
// number. The version-number unique index catches appends racing from
// another process, and those retry internally rather than surfacing a
// conflict.
func (l *Ledger) Append(
	ctx context.Context, documentID uint, content Content, authorID *uint, note string,
) (*models.DocumentVersion, error) {
	lock := l.lockFor(documentID)
	lock.Lock()
	defer lock.Unlock()

	var version *models.DocumentVersion
	op := func() error {
		v, err := l.appendOnce(ctx, documentID, content, authorID, note)
		if err != nil {
			if errs.IsConflict(err) {
				l.logger.Warn("version number conflict, retrying append",
					"document_id", documentID)
				return err
			}
			return backoff.Permanent(err)
		}
		version = v
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(10*time.Millisecond),
			backoff.WithMaxInterval(250*time.Millisecond),
		), 3), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return version, nil
}

func (l *Ledger) appendOnce(
	ctx context.Context, documentID uint, content Content, authorID *uint, note string,
) (*models.DocumentVersion, error) {
	var version models.DocumentVersion

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc := models.Document{ID: documentID}
		if err := doc.Get(tx); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("document %d", documentID)
			}
			return fmt.Errorf("error getting document: %w", err)
		}

		next := doc.CurrentVersionNo + 1
		version = models.DocumentVersion{
			DocumentID: documentID,
			VersionNo:  next,
			HTML:       content.HTML,
			Text:       content.Text,
			AuthorID:   authorID,
			ChangeNote: note,
		}
		if err := tx.Create(&version).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("version %d of document %d already exists: %w",
					next, documentID, errs.ErrConflict)
			}
			return fmt.Errorf("error creating version: %w", err)
		}

		// Advance the pointer in the same transaction: the document
		// never observes a version row it doesn't point at.
		updates := map[string]interface{}{
			"current_version_no": next,
			"html":               content.HTML,
			"text":               content.Text,
		}
		if err := tx.Model(&models.Document{}).
			Where("id = ?", documentID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("error advancing version pointer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("appended document version",
		"document_id", documentID, "version_no", version.VersionNo)
	return &version, nil
}

// Restore reads the target version's content and appends it as a
// strictly new version. The target row is never rewritten.
func (l *Ledger) Restore(
	ctx context.Context, documentID uint, targetVersionNo int, authorID *uint, note string,
) (*models.DocumentVersion, error) {
	var target models.DocumentVersion
	if err := target.GetByVersionNo(l.db.WithContext(ctx), documentID, targetVersionNo); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("version %d of document %d", targetVersionNo, documentID)
		}
		return nil, fmt.Errorf("error getting target version: %w", err)
	}

	if note == "" {
		note = "Restored from previous version"
	}
	note = fmt.Sprintf("%s (restored from version %d)", note, target.VersionNo)

	return l.Append(ctx, documentID,
		Content{HTML: target.HTML, Text: target.Text}, authorID, note)
}

// Version retrieves one version of a document.
func (l *Ledger) Version(ctx context.Context, documentID uint, versionNo int) (*models.DocumentVersion, error) {
	var v models.DocumentVersion
	if err := v.GetByVersionNo(l.db.WithContext(ctx), documentID, versionNo); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("version %d of document %d", versionNo, documentID)
		}
		return nil, fmt.Errorf("error getting version: %w", err)
	}
	return &v, nil
}

// History retrieves all versions of a document, newest first.
func (l *Ledger) History(ctx context.Context, documentID uint) (models.DocumentVersions, error) {
	var vs models.DocumentVersions
	if err := vs.FindByDocument(l.db.WithContext(ctx), documentID); err != nil {
		return nil, fmt.Errorf("error listing versions: %w", err)
	}
	return vs, nil
}
