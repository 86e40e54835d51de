// Package audit appends immutable event records for every view, edit,
// share, export, and revoke, and serves the trail back for history and
// change polling.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/docuforge/docuvault/pkg/models"
)

// pollPageSize caps how many events one poll returns.
const pollPageSize = 20

// Event describes an audit record to append. All reference fields are
// optional; the recorder stamps the timestamp itself.
type Event struct {
	Action      models.Action
	ActorUserID *uint
	DocumentID  *uint
	VersionNo   *int
	IP          string
	UserAgent   string
	Context     map[string]interface{}
	ShareLinkID *uuid.UUID
	QRLinkID    *uuid.UUID
}

// Recorder appends audit records best-effort: persistence failures are
// logged and swallowed so they can never abort the operation they
// describe.
type Recorder struct {
	db     *gorm.DB
	logger hclog.Logger
}

// NewRecorder creates an audit recorder.
func NewRecorder(db *gorm.DB, logger hclog.Logger) *Recorder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Recorder{db: db, logger: logger.Named("audit")}
}

// Record appends one audit record. The timestamp is always stamped
// server-side here; a client-supplied time is never trusted. Failures
// are absorbed.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	rec := models.AuditLog{
		ActorUserID: ev.ActorUserID,
		Action:      ev.Action,
		DocumentID:  ev.DocumentID,
		VersionNo:   ev.VersionNo,
		TS:          time.Now(),
		IP:          ev.IP,
		UserAgent:   ev.UserAgent,
		ShareLinkID: ev.ShareLinkID,
		QRLinkID:    ev.QRLinkID,
	}
	if ev.Context != nil {
		rec.Context = models.MustJSON(ev.Context)
	}

	if err := rec.Create(r.db.WithContext(ctx)); err != nil {
		r.logger.Error("failed to write audit record",
			"action", ev.Action,
			"document_id", ev.DocumentID,
			"error", err,
		)
		return
	}

	r.logger.Debug("audit record written",
		"action", ev.Action, "document_id", ev.DocumentID)
}

// DocumentTrail returns a document's audit records, newest first.
func (r *Recorder) DocumentTrail(ctx context.Context, documentID uint, limit int) (models.AuditLogs, error) {
	var logs models.AuditLogs
	if err := logs.FindByDocument(r.db.WithContext(ctx), documentID, limit); err != nil {
		return nil, fmt.Errorf("error listing audit trail: %w", err)
	}
	return logs, nil
}

// EventsSince returns a document's events strictly after since, oldest
// first, excluding the polling subject's own actions. hasMore is true
// when the page was truncated at the cap and the caller should poll
// again.
func (r *Recorder) EventsSince(
	ctx context.Context, documentID uint, since time.Time, excludeActorID *uint,
) (events models.AuditLogs, hasMore bool, err error) {
	if err := events.FindSince(
		r.db.WithContext(ctx), documentID, since, excludeActorID, pollPageSize,
	); err != nil {
		return nil, false, fmt.Errorf("error polling events: %w", err)
	}
	return events, len(events) == pollPageSize, nil
}
