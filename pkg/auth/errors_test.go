package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := newError(KindUpstreamUnavailable, descKeysUnavailable, cause)

	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.Equal(t, "upstream_unavailable", err.Name())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dial tcp: refused")

	plain := newError(KindTokenExpired, descExpired, nil)
	assert.Equal(t, http.StatusUnauthorized, plain.Status)
	assert.Equal(t, "token_expired: Token expired.", plain.Error())
}

func TestAsError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", newError(KindInvalidClaims, descIncorrectClaims, nil))

	authErr, ok := AsError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindInvalidClaims, authErr.Kind)
	assert.True(t, IsKind(wrapped, KindInvalidClaims))
	assert.False(t, IsKind(wrapped, KindTokenExpired))

	_, ok = AsError(errors.New("other"))
	assert.False(t, ok)
	assert.False(t, IsKind(nil, KindInvalidClaims))
}
