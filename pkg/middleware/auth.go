package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/castingagency/gatekeeper/pkg/auth"
	"github.com/castingagency/gatekeeper/pkg/config"
	"github.com/castingagency/gatekeeper/pkg/httputil"
	"github.com/castingagency/gatekeeper/pkg/observability"
)

// resultGranted labels successful decisions in metrics and logs
const resultGranted = "granted"

// ProtectedFunc is an operation guarded by a permission. It receives the
// verified claims as an explicit argument.
type ProtectedFunc func(w http.ResponseWriter, r *http.Request, claims auth.Claims)

// Guard wraps protected operations with an authorization check
type Guard interface {
	// Require returns a handler that runs next only if the request carries a
	// valid token granting permission. An empty permission only requires a
	// valid token.
	Require(permission string, next ProtectedFunc) http.Handler
}

// TokenVerifier verifies a bearer token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (auth.Claims, error)
}

// Authorizer is the real Guard: extract, verify, check, then run
type Authorizer struct {
	verifier TokenVerifier
	metrics  *observability.Metrics
	logger   logrus.FieldLogger
}

// AuthorizerOption configures an Authorizer
type AuthorizerOption func(*Authorizer)

// WithMetrics records authorization decisions
func WithMetrics(metrics *observability.Metrics) AuthorizerOption {
	return func(a *Authorizer) {
		a.metrics = metrics
	}
}

// WithLogger sets the fallback logger used when the request carries none
func WithLogger(logger logrus.FieldLogger) AuthorizerOption {
	return func(a *Authorizer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAuthorizer creates an authorizer backed by verifier
func NewAuthorizer(verifier TokenVerifier, opts ...AuthorizerOption) *Authorizer {
	a := &Authorizer{
		verifier: verifier,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Require implements Guard
func (a *Authorizer) Require(permission string, next ProtectedFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.Authorize(r, permission)
		if err != nil {
			a.deny(w, r, permission, err)
			return
		}

		a.metrics.RecordDecision(resultGranted)
		observability.FromContext(r.Context(), a.logger).WithFields(logrus.Fields{
			"permission": permission,
			"subject":    claims.Subject(),
		}).Debug("request authorized")

		next(w, r, claims)
	})
}

// Authorize runs the extract, verify and permission stages in order and
// stops at the first failure
func (a *Authorizer) Authorize(r *http.Request, permission string) (auth.Claims, error) {
	token, err := auth.TokenFromRequest(r)
	if err != nil {
		return nil, err
	}

	claims, err := a.verifier.Verify(r.Context(), token)
	if err != nil {
		return nil, err
	}

	if err := auth.CheckPermission(permission, claims); err != nil {
		return nil, err
	}

	return claims, nil
}

func (a *Authorizer) deny(w http.ResponseWriter, r *http.Request, permission string, err error) {
	body := httputil.ErrorBodyFor(err)
	a.metrics.RecordDecision(body.Name)

	entry := observability.FromContext(r.Context(), a.logger).WithFields(logrus.Fields{
		"permission": permission,
		"result":     body.Name,
	}).WithError(err)
	if auth.IsKind(err, auth.KindUpstreamUnavailable) {
		entry.Warn("authorization unavailable")
	} else {
		entry.Info("request denied")
	}

	httputil.WriteError(w, r, err)
}

// DisabledGuard skips authorization and hands every operation empty claims.
// It exists for tests only; NewGuard selects it solely from configuration
// that Validate restricts to the test environment.
type DisabledGuard struct{}

// Require implements Guard
func (DisabledGuard) Require(_ string, next ProtectedFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next(w, r, auth.Claims{})
	})
}

// NewGuard picks the guard variant once, at startup
func NewGuard(cfg config.AuthConfig, verifier TokenVerifier, opts ...AuthorizerOption) Guard {
	if cfg.Disabled {
		return DisabledGuard{}
	}
	return NewAuthorizer(verifier, opts...)
}
