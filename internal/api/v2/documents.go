package api

import (
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/docuforge/docuvault/internal/access"
	"github.com/docuforge/docuvault/internal/audit"
	"github.com/docuforge/docuvault/internal/auth"
	"github.com/docuforge/docuvault/internal/server"
	"github.com/docuforge/docuvault/internal/versions"
	"github.com/docuforge/docuvault/pkg/models"
	"github.com/docuforge/docuvault/pkg/notifications"
)

type DocumentsPostRequest struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
	Text  string `json:"text"`
}

func (req DocumentsPostRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 500)),
	)
}

type DocumentPutRequest struct {
	Title      string `json:"title,omitempty"`
	HTML       string `json:"html"`
	Text       string `json:"text"`
	ChangeNote string `json:"changeNote,omitempty"`
}

// DocumentsHandler handles the document collection: creation and
// listing the caller's own documents.
func DocumentsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		user := auth.UserFromContext(r.Context())
		if user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case "POST":
			req := &DocumentsPostRequest{}
			if err := decodeRequest(r, &req); err != nil {
				srv.Logger.Warn("error decoding request",
					append([]interface{}{"error", err}, logArgs...)...)
				http.Error(w, fmt.Sprintf("Bad request: %q", err),
					http.StatusBadRequest)
				return
			}
			if err := req.Validate(); err != nil {
				http.Error(w, fmt.Sprintf("Bad request: %v", err),
					http.StatusBadRequest)
				return
			}

			doc := models.Document{
				Title:   req.Title,
				HTML:    req.HTML,
				Text:    req.Text,
				OwnerID: user.ID,
			}
			if err := srv.Ledger.CreateDocument(r.Context(), &doc, &user.ID); err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}

			srv.Audit.Record(r.Context(), audit.Event{
				Action:      models.ActionEdit,
				ActorUserID: &user.ID,
				DocumentID:  &doc.ID,
				VersionNo:   &doc.CurrentVersionNo,
				IP:          clientIP(r),
				UserAgent:   r.UserAgent(),
				Context:     map[string]interface{}{"created": true},
			})

			respondJSON(w, srv.Logger, http.StatusCreated, doc)

		case "GET":
			var docs models.Documents
			if err := docs.FindByOwner(srv.DB, user.ID); err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			respondJSON(w, srv.Logger, http.StatusOK, docs)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// DocumentHandler handles a single document and its subresources:
// versions, grants, share links, QR links, events, audit, export.
func DocumentHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		segments := parseSubpath(r.URL.Path, "documents")
		if len(segments) == 0 {
			http.Error(w, "Document ID required", http.StatusBadRequest)
			return
		}
		docID, err := parseDocumentID(segments[0])
		if err != nil {
			http.Error(w, "Invalid document ID", http.StatusBadRequest)
			return
		}

		doc := models.Document{ID: docID}
		if err := doc.Get(srv.DB); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, "Not found", http.StatusNotFound)
				return
			}
			respondError(w, srv.Logger, err, logArgs...)
			return
		}

		user := auth.UserFromContext(r.Context())

		if len(segments) > 1 {
			switch segments[1] {
			case "versions":
				documentVersionsSubhandler(srv, w, r, user, &doc, segments[2:])
			case "grants":
				documentGrantsSubhandler(srv, w, r, user, &doc)
			case "share-links":
				documentShareLinksSubhandler(srv, w, r, user, &doc)
			case "qr":
				documentQRSubhandler(srv, w, r, user, &doc)
			case "events":
				documentEventsSubhandler(srv, w, r, user, &doc)
			case "audit":
				documentAuditSubhandler(srv, w, r, user, &doc)
			case "export":
				documentExportSubhandler(srv, w, r, user, &doc)
			default:
				http.Error(w, "Not found", http.StatusNotFound)
			}
			return
		}

		switch r.Method {
		case "GET":
			allowed, err := access.CanPerform(srv.DB, user, &doc, models.ActionView)
			if err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			if !allowed {
				denyDocument(w, user)
				return
			}

			srv.Audit.Record(r.Context(), audit.Event{
				Action:      models.ActionView,
				ActorUserID: actorID(user),
				DocumentID:  &doc.ID,
				VersionNo:   &doc.CurrentVersionNo,
				IP:          clientIP(r),
				UserAgent:   r.UserAgent(),
			})

			respondJSON(w, srv.Logger, http.StatusOK, doc)

		case "PUT":
			allowed, err := access.CanPerform(srv.DB, user, &doc, models.ActionEdit)
			if err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			if !allowed {
				denyDocument(w, user)
				return
			}

			req := &DocumentPutRequest{}
			if err := decodeRequest(r, &req); err != nil {
				srv.Logger.Warn("error decoding request",
					append([]interface{}{"error", err}, logArgs...)...)
				http.Error(w, fmt.Sprintf("Bad request: %q", err),
					http.StatusBadRequest)
				return
			}

			if req.Title != "" && req.Title != doc.Title {
				if err := srv.DB.Model(&doc).
					Update("title", req.Title).Error; err != nil {
					respondError(w, srv.Logger, err, logArgs...)
					return
				}
			}

			// Only changed content appends a version; a no-op save leaves
			// the ledger untouched.
			if req.HTML != doc.HTML || req.Text != doc.Text {
				v, err := srv.Ledger.Append(r.Context(), doc.ID,
					versions.Content{HTML: req.HTML, Text: req.Text},
					actorID(user), req.ChangeNote)
				if err != nil {
					respondError(w, srv.Logger, err, logArgs...)
					return
				}
				doc.HTML = req.HTML
				doc.Text = req.Text
				doc.CurrentVersionNo = v.VersionNo

				srv.Audit.Record(r.Context(), audit.Event{
					Action:      models.ActionEdit,
					ActorUserID: actorID(user),
					DocumentID:  &doc.ID,
					VersionNo:   &v.VersionNo,
					IP:          clientIP(r),
					UserAgent:   r.UserAgent(),
				})

				notifyDocument(srv, r, &doc, user,
					notifications.NotificationTypeDocumentEdited,
					fmt.Sprintf("%q was updated", doc.Title))
			}

			respondJSON(w, srv.Logger, http.StatusOK, doc)

		case "DELETE":
			allowed, err := access.CanDelete(srv.DB, user, &doc)
			if err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			if !allowed {
				denyDocument(w, user)
				return
			}

			// Recipients must be computed before the delete cascades the
			// grants away.
			recipients, rerr := notifications.RecipientsForDocument(
				srv.DB, &doc, actorID(user))
			if rerr != nil {
				srv.Logger.Error("error computing notification recipients",
					append([]interface{}{"error", rerr}, logArgs...)...)
			}

			if err := doc.Delete(srv.DB); err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}

			srv.Audit.Record(r.Context(), audit.Event{
				Action:      models.ActionDelete,
				ActorUserID: actorID(user),
				DocumentID:  &doc.ID,
				IP:          clientIP(r),
				UserAgent:   r.UserAgent(),
				Context:     map[string]interface{}{"title": doc.Title},
			})

			if len(recipients) > 0 {
				notifyRecipients(srv, r, &doc, user, recipients,
					notifications.NotificationTypeDocumentDeleted,
					fmt.Sprintf("%q was deleted", doc.Title))
			}

			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// denyDocument rejects a request that failed authorization: 401 for
// anonymous callers, 403 for authenticated ones.
func denyDocument(w http.ResponseWriter, user *models.User) {
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// actorID returns the user's ID pointer, or nil for anonymous.
func actorID(user *models.User) *uint {
	if user == nil {
		return nil
	}
	return &user.ID
}

// notifyDocument fans a notification out to everyone with access to
// the document, minus the actor. Failures are logged, never surfaced.
func notifyDocument(
	srv server.Server, r *http.Request, doc *models.Document, actor *models.User,
	typ notifications.NotificationType, subject string,
) {
	recipients, err := notifications.RecipientsForDocument(srv.DB, doc, actorID(actor))
	if err != nil {
		srv.Logger.Error("error computing notification recipients",
			"document_id", doc.ID, "error", err)
		return
	}
	notifyRecipients(srv, r, doc, actor, recipients, typ, subject)
}

func notifyRecipients(
	srv server.Server, r *http.Request, doc *models.Document, actor *models.User,
	recipients []notifications.Recipient,
	typ notifications.NotificationType, subject string,
) {
	if len(recipients) == 0 {
		return
	}
	msg := &notifications.NotificationMessage{
		Type:       typ,
		DocumentID: fmt.Sprintf("%d", doc.ID),
		VersionNo:  doc.CurrentVersionNo,
		Recipients: recipients,
		Subject:    subject,
		Body:       subject,
		Backends:   srv.Config.NotificationBackends(),
	}
	if actor != nil {
		msg.ActorUserID = actor.SubjectID()
	}
	if err := srv.Notifier.Notify(r.Context(), msg); err != nil {
		srv.Logger.Error("error delivering notification",
			"type", typ, "document_id", doc.ID, "error", err)
	}
}
