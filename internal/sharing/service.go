// Package sharing manages grants, share links, and QR links: the
// overlapping access sources the role resolver reads from.
package sharing

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/docuforge/docuvault/pkg/errs"
	"github.com/docuforge/docuvault/pkg/models"
)

// Service owns grant and link lifecycle. Share links and their
// materialized grants are two authorities kept consistent here: every
// create and revoke touches both in one transaction, and resolution
// re-derives the role from the link itself.
type Service struct {
	db     *gorm.DB
	logger hclog.Logger
}

// NewService creates a sharing service.
func NewService(db *gorm.DB, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{db: db, logger: logger.Named("sharing")}
}

// GrantInput is a request to grant a subject a role on a document.
type GrantInput struct {
	DocumentID  uint
	SubjectType models.SubjectType
	SubjectID   string
	Role        models.Role
	ExpiresAt   *time.Time
	CreatedByID *uint
}

// Validate checks the input. Share-link grants are not writable through
// this path; they exist only as materializations of share links.
func (in GrantInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.SubjectType, validation.Required,
			validation.In(models.SubjectUser, models.SubjectGroup)),
		validation.Field(&in.SubjectID, validation.Required),
		validation.Field(&in.Role, validation.Required,
			validation.In(models.RoleOwner, models.RoleEditor, models.RoleViewer)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalid, err)
	}
	return nil
}

// UpsertGrant writes a grant, replacing any existing grant for the
// same (document, subject_type, subject_id) tuple. Returns the stored
// grant and whether an existing grant's role was changed, so callers
// can distinguish a fresh share from an access change.
func (s *Service) UpsertGrant(ctx context.Context, in GrantInput) (*models.Grant, bool, error) {
	if err := in.Validate(); err != nil {
		return nil, false, err
	}

	g := models.Grant{
		DocumentID:  in.DocumentID,
		SubjectType: in.SubjectType,
		SubjectID:   in.SubjectID,
		Role:        in.Role,
		ExpiresAt:   in.ExpiresAt,
		CreatedByID: in.CreatedByID,
	}
	var roleChanged bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior models.Grant
		err := tx.
			Where("document_id = ? AND subject_type = ? AND subject_id = ?",
				in.DocumentID, in.SubjectType, in.SubjectID).
			First(&prior).Error
		switch {
		case err == nil:
			roleChanged = prior.Role != in.Role
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("error getting prior grant: %w", err)
		}
		if err := g.Upsert(tx); err != nil {
			return fmt.Errorf("error upserting grant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.logger.Info("grant written",
		"document_id", in.DocumentID,
		"subject_type", in.SubjectType,
		"subject_id", in.SubjectID,
		"role", in.Role,
		"role_changed", roleChanged,
	)
	return &g, roleChanged, nil
}

// RemoveGrant deletes a grant by ID.
func (s *Service) RemoveGrant(ctx context.Context, grantID uuid.UUID) (*models.Grant, error) {
	g := models.Grant{ID: grantID}
	if err := g.Get(s.db.WithContext(ctx)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("grant %s", grantID)
		}
		return nil, fmt.Errorf("error getting grant: %w", err)
	}
	if err := g.Delete(s.db.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("error deleting grant: %w", err)
	}
	return &g, nil
}

// ListGrants returns all grants on a document, newest first.
func (s *Service) ListGrants(ctx context.Context, documentID uint) (models.Grants, error) {
	var gs models.Grants
	if err := gs.FindByDocument(s.db.WithContext(ctx), documentID); err != nil {
		return nil, fmt.Errorf("error listing grants: %w", err)
	}
	return gs, nil
}

// CreateShareLink creates a share link for a document. The role is
// forced to VIEWER regardless of what the caller asked for, and the
// link's materialized grant is written in the same transaction.
func (s *Service) CreateShareLink(
	ctx context.Context, documentID uint, expiresAt *time.Time, createdByID *uint,
) (*models.ShareLink, error) {
	token, err := models.GenerateShareToken()
	if err != nil {
		return nil, fmt.Errorf("error generating share token: %w", err)
	}

	link := models.ShareLink{
		DocumentID:  documentID,
		Role:        models.RoleViewer,
		Token:       token,
		ExpiresAt:   expiresAt,
		CreatedByID: createdByID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.First(&doc, documentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("document %d", documentID)
			}
			return fmt.Errorf("error getting document: %w", err)
		}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("error creating share link: %w", err)
		}
		grant := models.Grant{
			DocumentID:  documentID,
			SubjectType: models.SubjectShareLink,
			SubjectID:   link.ID.String(),
			Role:        models.RoleViewer,
			ExpiresAt:   expiresAt,
			CreatedByID: createdByID,
		}
		if err := grant.Upsert(tx); err != nil {
			return fmt.Errorf("error materializing share link grant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("share link created",
		"document_id", documentID, "share_link_id", link.ID)
	return &link, nil
}

// RevokeShareLink stamps the link revoked and removes its materialized
// grant in the same transaction, so the role resolver and the token
// resolver can never disagree about a revoked link. Revocation is
// terminal: revoking an already-revoked link keeps the original
// revocation time.
func (s *Service) RevokeShareLink(ctx context.Context, linkID uuid.UUID) (*models.ShareLink, error) {
	link := models.ShareLink{ID: linkID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := link.Get(tx); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("share link %s", linkID)
			}
			return fmt.Errorf("error getting share link: %w", err)
		}
		if link.IsRevoked() {
			return nil
		}
		now := time.Now()
		link.RevokedAt = &now
		if err := tx.Model(&link).Update("revoked_at", now).Error; err != nil {
			return fmt.Errorf("error revoking share link: %w", err)
		}
		if err := models.DeleteShareLinkGrant(tx, link.DocumentID, link.ID); err != nil {
			return fmt.Errorf("error removing share link grant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("share link revoked",
		"document_id", link.DocumentID, "share_link_id", link.ID)
	return &link, nil
}

// ListShareLinks returns all share links for a document, newest first.
func (s *Service) ListShareLinks(ctx context.Context, documentID uint) (models.ShareLinks, error) {
	var links models.ShareLinks
	if err := links.FindByDocument(s.db.WithContext(ctx), documentID); err != nil {
		return nil, fmt.Errorf("error listing share links: %w", err)
	}
	return links, nil
}

// ResolveShareToken resolves an opaque token to the link (with its
// document loaded) and the granted role. A missing or revoked link is
// ErrNotFound; an expired one is the distinct ErrExpired. The role
// comes from the link row itself, clamped to VIEWER, never from the
// materialized grant, so direct grant manipulation cannot escalate a
// link's access.
func (s *Service) ResolveShareToken(ctx context.Context, token string) (*models.ShareLink, models.Role, error) {
	if token == "" {
		return nil, "", errs.Invalid("empty share token")
	}

	var link models.ShareLink
	if err := link.GetByToken(s.db.WithContext(ctx), token); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", errs.NotFound("share link")
		}
		return nil, "", fmt.Errorf("error getting share link: %w", err)
	}
	if link.IsRevoked() {
		return nil, "", errs.NotFound("share link")
	}
	if link.IsExpired() {
		return nil, "", errs.Expired("share link")
	}

	// Clamp: a share link can never grant more than VIEWER, even if the
	// stored row says otherwise.
	role := link.Role
	if role.Level() > models.RoleViewer.Level() || !role.IsValid() {
		role = models.RoleViewer
	}

	if link.Document == nil {
		doc := models.Document{ID: link.DocumentID}
		if err := doc.Get(s.db.WithContext(ctx)); err != nil {
			return nil, "", fmt.Errorf("error getting document: %w", err)
		}
		link.Document = &doc
	}
	return &link, role, nil
}

// CreateQRLink creates a QR code pointing at a document (optionally a
// specific version). QR links carry no role.
func (s *Service) CreateQRLink(
	ctx context.Context, documentID uint, versionNo *int, expiresAt *time.Time, createdByID *uint,
) (*models.QRLink, error) {
	code, err := models.GenerateQRCode()
	if err != nil {
		return nil, fmt.Errorf("error generating QR code: %w", err)
	}

	var doc models.Document
	if err := s.db.WithContext(ctx).First(&doc, documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("document %d", documentID)
		}
		return nil, fmt.Errorf("error getting document: %w", err)
	}

	qr := models.QRLink{
		DocumentID:  documentID,
		VersionNo:   versionNo,
		Code:        code,
		ExpiresAt:   expiresAt,
		Active:      true,
		CreatedByID: createdByID,
	}
	if err := s.db.WithContext(ctx).Create(&qr).Error; err != nil {
		return nil, fmt.Errorf("error creating QR link: %w", err)
	}
	return &qr, nil
}

// ResolveQRCode resolves a QR code to its link record. Missing or
// inactive codes are ErrNotFound; expired ones the distinct
// ErrExpired. Permission on the target document is the caller's
// problem: the code only redirects.
func (s *Service) ResolveQRCode(ctx context.Context, code string) (*models.QRLink, error) {
	if code == "" {
		return nil, errs.Invalid("empty QR code")
	}

	var qr models.QRLink
	if err := qr.GetByCode(s.db.WithContext(ctx), code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("QR code")
		}
		return nil, fmt.Errorf("error getting QR link: %w", err)
	}
	if !qr.Active {
		return nil, errs.NotFound("QR code")
	}
	if qr.IsExpired() {
		return nil, errs.Expired("QR code")
	}
	return &qr, nil
}
