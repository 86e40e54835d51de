package api

import (
	"net/http"
	"strconv"

	"github.com/docuforge/docuvault/internal/access"
	"github.com/docuforge/docuvault/internal/server"
	"github.com/docuforge/docuvault/pkg/models"
)

// documentAuditSubhandler handles .../documents/{id}/audit: the
// document's trail, newest first. Reading the trail requires the SHARE
// capability, same as managing access.
func documentAuditSubhandler(
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

	allowed, err := access.CanPerform(srv.DB, user, doc, models.ActionShare)
	if err != nil {
		respondError(w, srv.Logger, err, logArgs...)
		return
	}
	if !allowed {
		denyDocument(w, user)
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			http.Error(w, "Bad request: invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	trail, err := srv.Audit.DocumentTrail(r.Context(), doc.ID, limit)
	if err != nil {
		respondError(w, srv.Logger, err, logArgs...)
		return
	}
	respondJSON(w, srv.Logger, http.StatusOK, trail)
}
