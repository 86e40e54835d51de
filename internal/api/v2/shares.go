package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"github.com/docuforge/docuvault/internal/access"
	"github.com/docuforge/docuvault/internal/audit"
	"github.com/docuforge/docuvault/internal/auth"
	"github.com/docuforge/docuvault/internal/server"
	"github.com/docuforge/docuvault/internal/sharing"
	"github.com/docuforge/docuvault/pkg/models"
	"github.com/docuforge/docuvault/pkg/notifications"
)

type GrantPostRequest struct {
	SubjectType string `json:"subjectType"`
	SubjectID   string `json:"subjectId"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
}

// documentGrantsSubhandler handles .../documents/{id}/grants:
// listing and writing direct grants. Both require the SHARE
// capability.
func documentGrantsSubhandler(
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
		grants, err := srv.Sharing.ListGrants(r.Context(), doc.ID)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}
		respondJSON(w, srv.Logger, http.StatusOK, grants)

	case "POST":
		req := &GrantPostRequest{}
		if err := decodeRequest(r, &req); err != nil {
			http.Error(w, fmt.Sprintf("Bad request: %q", err),
				http.StatusBadRequest)
			return
		}

		expiresAt, err := parseOptionalTime(req.ExpiresAt)
		if err != nil {
			http.Error(w, "Bad request: invalid expiresAt",
				http.StatusBadRequest)
			return
		}

		grant, roleChanged, err := srv.Sharing.UpsertGrant(r.Context(), sharing.GrantInput{
			DocumentID:  doc.ID,
			SubjectType: models.SubjectType(req.SubjectType),
			SubjectID:   req.SubjectID,
			Role:        models.Role(req.Role),
			ExpiresAt:   expiresAt,
			CreatedByID: actorID(user),
		})
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
			Context: map[string]interface{}{
				"subjectType": req.SubjectType,
				"subjectId":   req.SubjectID,
				"role":        req.Role,
				"roleChanged": roleChanged,
			},
		})

		// A fresh share and a role change on an existing grant are
		// different events to the people affected.
		ntype := notifications.NotificationTypeDocumentShared
		subject := fmt.Sprintf("%q was shared", doc.Title)
		if roleChanged {
			ntype = notifications.NotificationTypeAccessChanged
			subject = fmt.Sprintf("Access to %q changed", doc.Title)
		}
		notifyDocument(srv, r, doc, user, ntype, subject)

		respondJSON(w, srv.Logger, http.StatusCreated, grant)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// GrantHandler handles /api/v2/grants/{id}: removing a grant.
func GrantHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		if r.Method != "DELETE" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		segments := parseSubpath(r.URL.Path, "grants")
		if len(segments) != 1 {
			http.Error(w, "Grant ID required", http.StatusBadRequest)
			return
		}
		grantID, err := uuid.Parse(segments[0])
		if err != nil {
			http.Error(w, "Invalid grant ID", http.StatusBadRequest)
			return
		}

		user := auth.UserFromContext(r.Context())
		if user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// Authorization needs the grant's document, so look it up first
		// and authorize before deleting.
		grant, doc, ok := grantDocument(srv, w, grantID, logArgs)
		if !ok {
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

		removed, err := srv.Sharing.RemoveGrant(r.Context(), grant.ID)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}

		srv.Audit.Record(r.Context(), audit.Event{
			Action:      models.ActionRevoke,
			ActorUserID: actorID(user),
			DocumentID:  &removed.DocumentID,
			IP:          clientIP(r),
			UserAgent:   r.UserAgent(),
			Context: map[string]interface{}{
				"subjectType": removed.SubjectType,
				"subjectId":   removed.SubjectID,
			},
		})

		notifyDocument(srv, r, doc, user,
			notifications.NotificationTypeAccessRevoked,
			fmt.Sprintf("Access to %q changed", doc.Title))

		w.WriteHeader(http.StatusNoContent)
	})
}

// grantDocument loads a grant and its document, writing the error
// response itself on failure.
func grantDocument(
	srv server.Server, w http.ResponseWriter, grantID uuid.UUID, logArgs []any,
) (*models.Grant, *models.Document, bool) {
	g := models.Grant{ID: grantID}
	if err := g.Get(srv.DB); err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return nil, nil, false
	}
	doc := models.Document{ID: g.DocumentID}
	if err := doc.Get(srv.DB); err != nil {
		respondError(w, srv.Logger, err, logArgs...)
		return nil, nil, false
	}
	return &g, &doc, true
}

// parseOptionalTime parses a flexible timestamp string, returning nil
// for empty input.
func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
