// Package api implements the v2 HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/docuforge/docuvault/pkg/errs"
)

// decodeRequest decodes a JSON request body into v.
func decodeRequest(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("error decoding request body: %w", err)
	}
	return nil
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, log hclog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("error encoding response", "error", err)
	}
}

// respondError maps a service error to an HTTP status. Unclassified
// errors become a 500 and are logged; classified errors surface only
// their classification, not their internals.
func respondError(w http.ResponseWriter, log hclog.Logger, err error, logArgs ...interface{}) {
	switch {
	case errs.IsNotFound(err):
		http.Error(w, "Not found", http.StatusNotFound)
	case errs.IsExpired(err):
		http.Error(w, "Gone", http.StatusGone)
	case errors.Is(err, errs.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, errs.ErrUnauthenticated):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, errs.ErrInvalid):
		http.Error(w, fmt.Sprintf("Bad request: %v", err), http.StatusBadRequest)
	case errs.IsConflict(err):
		http.Error(w, "Conflict", http.StatusConflict)
	default:
		log.Error("internal error handling request",
			append([]interface{}{"error", err}, logArgs...)...)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// parseSubpath splits the path after "/api/v2/{apiPath}/" into its
// non-empty segments.
func parseSubpath(url, apiPath string) []string {
	url = strings.TrimPrefix(url, fmt.Sprintf("/api/v2/%s", apiPath))
	var segments []string
	for _, v := range strings.Split(url, "/") {
		if v != "" {
			segments = append(segments, v)
		}
	}
	return segments
}

// parseDocumentID parses a document ID path segment.
func parseDocumentID(segment string) (uint, error) {
	id, err := strconv.ParseUint(segment, 10, 64)
	if err != nil || id == 0 {
		return 0, errs.Invalid("invalid document ID %q", segment)
	}
	return uint(id), nil
}

// clientIP extracts the originating client IP, honoring
// X-Forwarded-For when set by a fronting proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
