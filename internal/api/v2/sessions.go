package api

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/docuforge/docuvault/internal/auth"
	"github.com/docuforge/docuvault/internal/server"
	"github.com/docuforge/docuvault/pkg/models"
)

type SessionsPostRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

func (req SessionsPostRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
	)
}

type SessionsPostResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// SessionsHandler handles /api/v2/sessions: issuing a session token
// for an email identity. Identity verification happens upstream; this
// endpoint trusts its caller the way a dev login or SSO callback does.
func SessionsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		if r.Method != "POST" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		req := &SessionsPostRequest{}
		if err := decodeRequest(r, &req); err != nil {
			http.Error(w, fmt.Sprintf("Bad request: %q", err),
				http.StatusBadRequest)
			return
		}
		if err := req.Validate(); err != nil {
			http.Error(w, fmt.Sprintf("Bad request: %v", err),
				http.StatusBadRequest)
			return
		}

		u := models.User{
			EmailAddress: req.Email,
			DisplayName:  req.DisplayName,
		}
		if err := u.FirstOrCreate(srv.DB); err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}

		token, err := srv.Sessions.Issue(u.EmailAddress)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}

		respondJSON(w, srv.Logger, http.StatusCreated, SessionsPostResponse{
			Token: token,
			User:  &u,
		})
	})
}

// MeHandler handles /api/v2/me: the authenticated user.
func MeHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		user := auth.UserFromContext(r.Context())
		if user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		respondJSON(w, srv.Logger, http.StatusOK, user)
	})
}
