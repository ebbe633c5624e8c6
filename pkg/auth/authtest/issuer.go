// Package authtest provides a fake identity provider for tests: an RSA
// signing key, a JWKS endpoint served by httptest and helpers to mint
// tokens.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"

	"github.com/castingagency/gatekeeper/pkg/config"
)

const (
	// Domain is the provider domain tokens are issued from
	Domain = "casting.test.auth0.com"
	// Audience is the API identifier tokens are issued for
	Audience = "casting-agency"
	// JWKSPath is where the fake provider serves its key set
	JWKSPath = "/.well-known/jwks.json"
)

// Issuer is a fake identity provider
type Issuer struct {
	server *httptest.Server

	mu      sync.Mutex
	key     *rsa.PrivateKey
	keyID   string
	extra   []jose.JSONWebKey
	status  int
	delay   time.Duration
	fetches atomic.Int32
}

// NewIssuer starts a provider with one RSA key. It is shut down when the
// test ends.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()

	iss := &Issuer{status: http.StatusOK}
	iss.key, iss.keyID = GenerateKey(t)
	iss.server = httptest.NewServer(http.HandlerFunc(iss.serveJWKS))
	t.Cleanup(iss.server.Close)

	return iss
}

// GenerateKey returns a fresh RSA key and a random key id
func GenerateKey(t testing.TB) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return key, uuid.NewString()
}

func (i *Issuer) serveJWKS(w http.ResponseWriter, r *http.Request) {
	i.fetches.Add(1)

	i.mu.Lock()
	status, delay := i.status, i.delay
	set := jose.JSONWebKeySet{Keys: append([]jose.JSONWebKey{i.publicJWK()}, i.extra...)}
	i.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if r.URL.Path != JWKSPath {
		http.NotFound(w, r)
		return
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(set)
}

func (i *Issuer) publicJWK() jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:       &i.key.PublicKey,
		KeyID:     i.keyID,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	}
}

// JWKSURL returns the key set URL
func (i *Issuer) JWKSURL() string {
	return i.server.URL + JWKSPath
}

// KeyID returns the id of the current signing key
func (i *Issuer) KeyID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.keyID
}

// AuthConfig returns a configuration that trusts this provider
func (i *Issuer) AuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Domain:             Domain,
		Audience:           Audience,
		JWKSURLOverride:    i.JWKSURL(),
		KeyCacheTTL:        time.Hour,
		MinRefreshInterval: 10 * time.Second,
		FetchTimeout:       2 * time.Second,
	}
}

// Fetches returns how many times the key set was requested
func (i *Issuer) Fetches() int {
	return int(i.fetches.Load())
}

// SetStatus makes the key set endpoint answer with status and no body
func (i *Issuer) SetStatus(status int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = status
}

// SetDelay delays every key set response
func (i *Issuer) SetDelay(d time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.delay = d
}

// AddKey publishes an additional JWK alongside the signing key
func (i *Issuer) AddKey(jwk jose.JSONWebKey) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.extra = append(i.extra, jwk)
}

// Rotate replaces the signing key. The old key is no longer published.
func (i *Issuer) Rotate(t testing.TB) {
	t.Helper()
	key, kid := GenerateKey(t)
	i.mu.Lock()
	defer i.mu.Unlock()
	i.key, i.keyID = key, kid
}

// Claims returns a valid claim set carrying permissions. Pass no
// permissions for an empty list; delete the key for a token without one.
func (i *Issuer) Claims(permissions ...string) map[string]any {
	now := time.Now()
	if permissions == nil {
		permissions = []string{}
	}
	return map[string]any{
		"iss":         "https://" + Domain + "/",
		"sub":         "auth0|5f1a2b3c",
		"aud":         []string{Audience},
		"iat":         now.Unix(),
		"exp":         now.Add(time.Hour).Unix(),
		"permissions": permissions,
	}
}

// Token mints a valid token carrying permissions
func (i *Issuer) Token(t testing.TB, permissions ...string) string {
	t.Helper()
	return i.Sign(t, i.Claims(permissions...))
}

// Sign signs claims with the current key
func (i *Issuer) Sign(t testing.TB, claims map[string]any) string {
	t.Helper()
	i.mu.Lock()
	key, kid := i.key, i.keyID
	i.mu.Unlock()
	return SignRS256(t, key, kid, claims)
}

// SignRS256 signs claims with key. An empty kid leaves the header without one.
func SignRS256(t testing.TB, key *rsa.PrivateKey, kid string, claims map[string]any) string {
	t.Helper()
	return sign(t, jose.SigningKey{
		Algorithm: jose.RS256,
		Key:       jose.JSONWebKey{Key: key, KeyID: kid},
	}, claims)
}

// SignHS256 signs claims with a shared secret
func SignHS256(t testing.TB, secret []byte, kid string, claims map[string]any) string {
	t.Helper()
	return sign(t, jose.SigningKey{
		Algorithm: jose.HS256,
		Key:       jose.JSONWebKey{Key: secret, KeyID: kid},
	}, claims)
}

func sign(t testing.TB, key jose.SigningKey, claims map[string]any) string {
	t.Helper()

	signer, err := jose.NewSigner(key, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("failed to encode claims: %v", err)
	}
	jws, err := signer.Sign(payload)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	token, err := jws.CompactSerialize()
	if err != nil {
		t.Fatalf("failed to serialize token: %v", err)
	}
	return token
}
