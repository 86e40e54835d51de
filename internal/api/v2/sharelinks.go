package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/docuforge/docuvault/internal/access"
	"github.com/docuforge/docuvault/internal/audit"
	"github.com/docuforge/docuvault/internal/auth"
	"github.com/docuforge/docuvault/internal/server"
	"github.com/docuforge/docuvault/pkg/models"
)

type ShareLinkPostRequest struct {
	// Role is accepted for API symmetry but ignored: share links are
	// always VIEWER.
	Role      string `json:"role,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

type ShareLinkResponse struct {
	*models.ShareLink
	URL string `json:"url"`
}

type SharedAccessResponse struct {
	Document *models.Document `json:"document"`
	Role     models.Role      `json:"role"`
}

// documentShareLinksSubhandler handles .../documents/{id}/share-links:
// listing and creating share links. Requires the SHARE capability.
func documentShareLinksSubhandler(
	srv server.Server, w http.ResponseWriter, r *http.Request,
	user *models.User, doc *models.Document,
) {
	logArgs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"document_id", doc.ID,
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

	switch r.Method {
	case "GET":
		links, err := srv.Sharing.ListShareLinks(r.Context(), doc.ID)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}
		resp := make([]ShareLinkResponse, len(links))
		for i := range links {
			resp[i] = ShareLinkResponse{
				ShareLink: &links[i],
				URL:       shareURL(srv, links[i].Token),
			}
		}
		respondJSON(w, srv.Logger, http.StatusOK, resp)

	case "POST":
		req := &ShareLinkPostRequest{}
		if r.ContentLength > 0 {
			if err := decodeRequest(r, &req); err != nil {
				http.Error(w, fmt.Sprintf("Bad request: %q", err),
					http.StatusBadRequest)
				return
			}
		}

		expiresAt, err := parseOptionalTime(req.ExpiresAt)
		if err != nil {
			http.Error(w, "Bad request: invalid expiresAt",
				http.StatusBadRequest)
			return
		}

		link, err := srv.Sharing.CreateShareLink(
			r.Context(), doc.ID, expiresAt, actorID(user))
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}

		srv.Audit.Record(r.Context(), audit.Event{
			Action:      models.ActionShare,
			ActorUserID: actorID(user),
			DocumentID:  &doc.ID,
			IP:          clientIP(r),
			UserAgent:   r.UserAgent(),
			ShareLinkID: &link.ID,
		})

		respondJSON(w, srv.Logger, http.StatusCreated, ShareLinkResponse{
			ShareLink: link,
			URL:       shareURL(srv, link.Token),
		})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ShareLinkHandler handles /api/v2/share-links/{id}: revocation.
func ShareLinkHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		if r.Method != "DELETE" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		segments := parseSubpath(r.URL.Path, "share-links")
		if len(segments) != 1 {
			http.Error(w, "Share link ID required", http.StatusBadRequest)
			return
		}
		linkID, err := uuid.Parse(segments[0])
		if err != nil {
			http.Error(w, "Invalid share link ID", http.StatusBadRequest)
			return
		}

		user := auth.UserFromContext(r.Context())
		if user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		link := models.ShareLink{ID: linkID}
		if err := link.Get(srv.DB); err != nil {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		doc := models.Document{ID: link.DocumentID}
		if err := doc.Get(srv.DB); err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}
		allowed, err := access.CanPerform(srv.DB, user, &doc, models.ActionShare)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}
		if !allowed {
			denyDocument(w, user)
			return
		}

		revoked, err := srv.Sharing.RevokeShareLink(r.Context(), linkID)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}

		srv.Audit.Record(r.Context(), audit.Event{
			Action:      models.ActionRevoke,
			ActorUserID: actorID(user),
			DocumentID:  &revoked.DocumentID,
			IP:          clientIP(r),
			UserAgent:   r.UserAgent(),
			ShareLinkID: &revoked.ID,
		})

		w.WriteHeader(http.StatusNoContent)
	})
}

// SharedHandler handles /api/v2/shared/{token}: anonymous document
// access through a share link. A valid token yields the document and
// the link's role; a revoked or unknown token is indistinguishable
// from absent, and an expired one is a distinct 410.
func SharedHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		if r.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		segments := parseSubpath(r.URL.Path, "shared")
		if len(segments) != 1 {
			http.Error(w, "Share token required", http.StatusBadRequest)
			return
		}

		link, role, err := srv.Sharing.ResolveShareToken(r.Context(), segments[0])
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}
		doc := link.Document

		user := auth.UserFromContext(r.Context())
		srv.Audit.Record(r.Context(), audit.Event{
			Action:      models.ActionView,
			ActorUserID: actorID(user),
			DocumentID:  &doc.ID,
			VersionNo:   &doc.CurrentVersionNo,
			IP:          clientIP(r),
			UserAgent:   r.UserAgent(),
			ShareLinkID: &link.ID,
		})

		respondJSON(w, srv.Logger, http.StatusOK, SharedAccessResponse{
			Document: doc,
			Role:     role,
		})
	})
}

func shareURL(srv server.Server, token string) string {
	return fmt.Sprintf("%s/shared/%s", srv.Config.BaseURL, token)
}
