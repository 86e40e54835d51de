package api

import (
	"net/http"
	"strconv"

	"github.com/docuforge/docuvault/internal/access"
	"github.com/docuforge/docuvault/internal/audit"
	"github.com/docuforge/docuvault/internal/server"
	"github.com/docuforge/docuvault/pkg/models"
)

type ExportResponse struct {
	Path string `json:"path"`
}

// documentExportSubhandler handles POST .../documents/{id}/export,
// writing a snapshot of the current content or, with ?version=N, a
// historical version.
func documentExportSubhandler(
	srv server.Server, w http.ResponseWriter, r *http.Request,
	user *models.User, doc *models.Document,
) {
	logArgs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"document_id", doc.ID,
	}

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	allowed, err := access.CanPerform(srv.DB, user, doc, models.ActionExport)
	if err != nil {
		respondError(w, srv.Logger, err, logArgs...)
		return
	}
	if !allowed {
		denyDocument(w, user)
		return
	}

	var versionNo *int
	if v := r.URL.Query().Get("version"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			http.Error(w, "Bad request: invalid version", http.StatusBadRequest)
			return
		}
		versionNo = &parsed
	}

	var path string
	if versionNo != nil {
		path, err = srv.Exporter.ExportVersion(r.Context(), doc.ID, *versionNo)
	} else {
		path, err = srv.Exporter.ExportDocument(r.Context(), doc.ID)
	}
	if err != nil {
		respondError(w, srv.Logger, err, logArgs...)
		return
	}

	srv.Audit.Record(r.Context(), audit.Event{
		Action:      models.ActionExport,
		ActorUserID: actorID(user),
		DocumentID:  &doc.ID,
		VersionNo:   versionNo,
		IP:          clientIP(r),
		UserAgent:   r.UserAgent(),
		Context:     map[string]interface{}{"path": path},
	})

	respondJSON(w, srv.Logger, http.StatusOK, ExportResponse{Path: path})
}
