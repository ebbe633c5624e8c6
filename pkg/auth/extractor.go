package auth

import (
	"net/http"
	"strings"
)

// AuthorizationHeader is the request header carrying the bearer token
const AuthorizationHeader = "Authorization"

// ExtractBearerToken parses an Authorization header value of the form
// "Bearer <token>". The scheme is matched case-insensitively and exactly
// two whitespace-separated fields are required.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", newError(KindHeaderMissing, descHeaderExpected, nil)
	}

	parts := strings.Fields(header)
	if len(parts) == 0 || !strings.EqualFold(parts[0], "bearer") {
		return "", newError(KindInvalidHeader, descMustStartBearer, nil)
	}
	if len(parts) == 1 {
		return "", newError(KindInvalidHeader, descTokenNotFound, nil)
	}
	if len(parts) > 2 {
		return "", newError(KindInvalidHeader, descMustBeBearerToken, nil)
	}

	return parts[1], nil
}

// TokenFromRequest extracts the bearer token from r's Authorization header
func TokenFromRequest(r *http.Request) (string, error) {
	return ExtractBearerToken(r.Header.Get(AuthorizationHeader))
}
