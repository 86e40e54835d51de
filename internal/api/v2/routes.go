package api

import (
	"net/http"

	"github.com/docuforge/docuvault/internal/server"
)

// RegisterRoutes mounts every v2 endpoint on the mux.
func RegisterRoutes(mux *http.ServeMux, srv server.Server) {
	mux.Handle("/api/v2/sessions", SessionsHandler(srv))
	mux.Handle("/api/v2/me", MeHandler(srv))
	mux.Handle("/api/v2/documents", DocumentsHandler(srv))
	mux.Handle("/api/v2/documents/", DocumentHandler(srv))
	mux.Handle("/api/v2/grants/", GrantHandler(srv))
	mux.Handle("/api/v2/share-links/", ShareLinkHandler(srv))
	mux.Handle("/api/v2/shared/", SharedHandler(srv))
	mux.Handle("/api/v2/qr/", QRHandler(srv))
}
