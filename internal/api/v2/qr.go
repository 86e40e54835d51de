package api

import (
	"fmt"
	"net/http"

	"github.com/docuforge/docuvault/internal/access"
	"github.com/docuforge/docuvault/internal/audit"
	"github.com/docuforge/docuvault/internal/auth"
	"github.com/docuforge/docuvault/internal/server"
	"github.com/docuforge/docuvault/pkg/models"
)

type QRPostRequest struct {
	VersionNo *int   `json:"versionNo,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

type QRResponse struct {
	*models.QRLink
	URL string `json:"url"`
}

type QRResolveResponse struct {
	DocumentID uint `json:"documentId"`
	VersionNo  *int `json:"versionNo,omitempty"`
}

// documentQRSubhandler handles .../documents/{id}/qr: creating QR
// codes for a document or one of its versions. Requires the SHARE
// capability.
func documentQRSubhandler(
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

	allowed, err := access.CanPerform(srv.DB, user, doc, models.ActionShare)
	if err != nil {
		respondError(w, srv.Logger, err, logArgs...)
		return
	}
	if !allowed {
		denyDocument(w, user)
		return
	}

	req := &QRPostRequest{}
	if r.ContentLength > 0 {
		if err := decodeRequest(r, &req); err != nil {
			http.Error(w, fmt.Sprintf("Bad request: %q", err),
				http.StatusBadRequest)
			return
		}
	}

	expiresAt, err := parseOptionalTime(req.ExpiresAt)
	if err != nil {
		http.Error(w, "Bad request: invalid expiresAt", http.StatusBadRequest)
		return
	}

	qr, err := srv.Sharing.CreateQRLink(
		r.Context(), doc.ID, req.VersionNo, expiresAt, actorID(user))
	if err != nil {
		respondError(w, srv.Logger, err, logArgs...)
		return
	}

	srv.Audit.Record(r.Context(), audit.Event{
		Action:      models.ActionShare,
		ActorUserID: actorID(user),
		DocumentID:  &doc.ID,
		VersionNo:   req.VersionNo,
		IP:          clientIP(r),
		UserAgent:   r.UserAgent(),
		QRLinkID:    &qr.ID,
	})

	respondJSON(w, srv.Logger, http.StatusCreated, QRResponse{
		QRLink: qr,
		URL:    fmt.Sprintf("%s/qr/%s", srv.Config.BaseURL, qr.Code),
	})
}

// QRHandler handles /api/v2/qr/{code}: resolving a QR code to its
// target. Resolution only redirects; whether the caller may then read
// the document is decided by the document endpoint.
func QRHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		if r.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		segments := parseSubpath(r.URL.Path, "qr")
		if len(segments) != 1 {
			http.Error(w, "QR code required", http.StatusBadRequest)
			return
		}

		qr, err := srv.Sharing.ResolveQRCode(r.Context(), segments[0])
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}

		user := auth.UserFromContext(r.Context())
		srv.Audit.Record(r.Context(), audit.Event{
			Action:      models.ActionView,
			ActorUserID: actorID(user),
			DocumentID:  &qr.DocumentID,
			VersionNo:   qr.VersionNo,
			IP:          clientIP(r),
			UserAgent:   r.UserAgent(),
			QRLinkID:    &qr.ID,
			Context:     map[string]interface{}{"qrResolve": true},
		})

		respondJSON(w, srv.Logger, http.StatusOK, QRResolveResponse{
			DocumentID: qr.DocumentID,
			VersionNo:  qr.VersionNo,
		})
	})
}
