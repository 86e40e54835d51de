package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/docuforge/docuvault/internal/access"
	"github.com/docuforge/docuvault/internal/audit"
	"github.com/docuforge/docuvault/internal/server"
	"github.com/docuforge/docuvault/pkg/models"
)

type VersionRestoreRequest struct {
	ChangeNote string `json:"changeNote,omitempty"`
}

// documentVersionsSubhandler handles a document's version ledger:
//
//	GET  .../versions                 - full history, newest first
//	GET  .../versions/{no}            - one version
//	POST .../versions/{no}/restore    - restore as a new version
func documentVersionsSubhandler(
	srv server.Server, w http.ResponseWriter, r *http.Request,
	user *models.User, doc *models.Document, segments []string,
) {
	logArgs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"document_id", doc.ID,
	}

	// Reading history requires view; restoring requires edit.
	allowed, err := access.CanPerform(srv.DB, user, doc, models.ActionView)
	if err != nil {
		respondError(w, srv.Logger, err, logArgs...)
		return
	}
	if !allowed {
		denyDocument(w, user)
		return
	}

	if len(segments) == 0 {
		if r.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		history, err := srv.Ledger.History(r.Context(), doc.ID)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}
		respondJSON(w, srv.Logger, http.StatusOK, history)
		return
	}

	versionNo, err := strconv.Atoi(segments[0])
	if err != nil || versionNo < 1 {
		http.Error(w, "Invalid version number", http.StatusBadRequest)
		return
	}

	if len(segments) == 1 {
		if r.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		v, err := srv.Ledger.Version(r.Context(), doc.ID, versionNo)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}
		respondJSON(w, srv.Logger, http.StatusOK, v)
		return
	}

	if len(segments) == 2 && segments[1] == "restore" {
		if r.Method != "POST" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		allowed, err := access.CanPerform(srv.DB, user, doc, models.ActionEdit)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}
		if !allowed {
			denyDocument(w, user)
			return
		}

		req := &VersionRestoreRequest{}
		if r.ContentLength > 0 {
			if err := decodeRequest(r, &req); err != nil {
				http.Error(w, fmt.Sprintf("Bad request: %q", err),
					http.StatusBadRequest)
				return
			}
		}

		v, err := srv.Ledger.Restore(
			r.Context(), doc.ID, versionNo, actorID(user), req.ChangeNote)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}

		srv.Audit.Record(r.Context(), audit.Event{
			Action:      models.ActionRestore,
			ActorUserID: actorID(user),
			DocumentID:  &doc.ID,
			VersionNo:   &v.VersionNo,
			IP:          clientIP(r),
			UserAgent:   r.UserAgent(),
			Context:     map[string]interface{}{"restoredFrom": versionNo},
		})

		respondJSON(w, srv.Logger, http.StatusCreated, v)
		return
	}

	http.Error(w, "Not found", http.StatusNotFound)
}
