package api

import (
	"net/http"
	"time"

	"github.com/araddon/dateparse"

	"github.com/docuforge/docuvault/internal/access"
	"github.com/docuforge/docuvault/internal/server"
	"github.com/docuforge/docuvault/pkg/models"
)

type EventsResponse struct {
	Events     models.AuditLogs `json:"events"`
	ServerTime time.Time        `json:"serverTime"`
	HasMore    bool             `json:"hasMore"`
}

// documentEventsSubhandler handles .../documents/{id}/events: polling
// for changes since a timestamp. The caller's own actions are excluded
// so a client never reacts to itself. ServerTime in the response is
// the watermark for the next poll.
func documentEventsSubhandler(
	srv server.Server, w http.ResponseWriter, r *http.Request,
	user *models.User, doc *models.Document,
) {
	logArgs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"document_id", doc.ID,
	}

	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	allowed, err := access.CanPerform(srv.DB, user, doc, models.ActionView)
	if err != nil {
		respondError(w, srv.Logger, err, logArgs...)
		return
	}
	if !allowed {
		denyDocument(w, user)
		return
	}

	since := time.Time{}
	if s := r.URL.Query().Get("since"); s != "" {
		since, err = dateparse.ParseAny(s)
		if err != nil {
			http.Error(w, "Bad request: invalid since timestamp",
				http.StatusBadRequest)
			return
		}
	}

	serverTime := time.Now()
	events, hasMore, err := srv.Audit.EventsSince(
		r.Context(), doc.ID, since, actorID(user))
	if err != nil {
		respondError(w, srv.Logger, err, logArgs...)
		return
	}

	respondJSON(w, srv.Logger, http.StatusOK, EventsResponse{
		Events:     events,
		ServerTime: serverTime,
		HasMore:    hasMore,
	})
}
