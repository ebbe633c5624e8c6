package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind identifies a class of authorization failure. Its value is the
// machine-readable name written to clients.
type ErrorKind string

const (
	KindHeaderMissing       ErrorKind = "authorization_header_missing"
	KindInvalidHeader       ErrorKind = "invalid_header"
	KindTokenExpired        ErrorKind = "token_expired"
	KindInvalidClaims       ErrorKind = "invalid_claims"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
)

// Error is an authorization failure raised by the extractor, verifier or
// permission gate. It carries everything the error mapper needs to build a
// response.
type Error struct {
	Kind        ErrorKind
	Description string
	Status      int

	// cause is kept for logging only and never written to clients
	cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Name returns the wire name of the error
func (e *Error) Name() string {
	return string(e.Kind)
}

func newError(kind ErrorKind, description string, cause error) *Error {
	status := http.StatusUnauthorized
	if kind == KindUpstreamUnavailable {
		status = http.StatusServiceUnavailable
	}
	return &Error{
		Kind:        kind,
		Description: description,
		Status:      status,
		cause:       cause,
	}
}

// AsError extracts an *Error from err's chain
func AsError(err error) (*Error, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// IsKind reports whether err is an authorization failure of the given kind
func IsKind(err error, kind ErrorKind) bool {
	authErr, ok := AsError(err)
	return ok && authErr.Kind == kind
}

// Descriptions written to clients. They mirror the wording API consumers of
// the casting service already match on.
const (
	descHeaderExpected     = "Authorization header is expected"
	descMustStartBearer    = "Authorization header must start with Bearer"
	descTokenNotFound      = "Token not found"
	descMustBeBearerToken  = "Authorization header must be Bearer token"
	descMalformed          = "Authorization malformed."
	descUnsupportedAlg     = "Unsupported signing algorithm."
	descKeyNotFound        = "Unable to find appropriate key"
	descUnparsable         = "Unable to parse authentication token."
	descExpired            = "Token expired."
	descExpiryRequired     = "Expiry claim is required."
	descNotYetValid        = "Token is not valid yet."
	descIncorrectClaims    = "Incorrect claims. Please check the audience and issuer."
	descPermissionsMissing = "Permissions not included in JWT."
	descPermissionNotFound = "Permission not found."
	descKeysUnavailable    = "Unable to fetch signing keys from the identity provider."
)
