// Package errs defines the error taxonomy shared by the access,
// versioning, sharing, and audit services. Absence of access is never
// an error; these sentinels cover structural failures only.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a document, version, grant, or link that
	// does not exist (or a share link that has been revoked, which is
	// indistinguishable from absent to resolvers).
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates an authenticated subject lacking the
	// required role for an action.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated indicates a missing subject context where one
	// is required.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrConflict indicates a write race on a unique key. Callers
	// inside this module retry it; it should not escape to API
	// consumers.
	ErrConflict = errors.New("conflict")

	// ErrExpired indicates a share link, QR code, or grant whose expiry
	// is in the past. Distinct from ErrNotFound so callers can say
	// "link expired" instead of "link not found".
	ErrExpired = errors.New("expired")

	// ErrInvalid indicates a malformed role, subject type, or token.
	ErrInvalid = errors.New("invalid")
)

// NotFound wraps ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Expired wraps ErrExpired with a formatted message.
func Expired(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrExpired)...)
}

// Invalid wraps ErrInvalid with a formatted message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalid)...)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsExpired reports whether err is or wraps ErrExpired.
func IsExpired(err error) bool { return errors.Is(err, ErrExpired) }

// IsConflict reports whether err is or wraps ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
