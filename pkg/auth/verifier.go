package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/castingagency/gatekeeper/pkg/config"
	"github.com/castingagency/gatekeeper/pkg/jwks"
)

// SigningAlgorithm is the only algorithm tokens may be signed with
const SigningAlgorithm = jose.RS256

// parseAlgorithms lets the parser accept any well-formed JWS so that a
// token signed with another algorithm is reported as unsupported rather
// than malformed
var parseAlgorithms = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.HS256, jose.HS384, jose.HS512,
	jose.EdDSA,
}

// KeyResolver resolves a key id to a published signing key
type KeyResolver interface {
	Key(ctx context.Context, kid string) (jwks.SigningKey, error)
}

// Verifier validates bearer tokens and yields their claims
type Verifier struct {
	issuer   string
	audience string
	leeway   time.Duration
	keys     KeyResolver
	now      func() time.Time
	tracer   trace.Tracer
}

// VerifierOption configures a Verifier
type VerifierOption func(*Verifier)

// WithClock overrides the verification clock
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// WithTracer overrides the tracer used for verification spans
func WithTracer(tracer trace.Tracer) VerifierOption {
	return func(v *Verifier) {
		if tracer != nil {
			v.tracer = tracer
		}
	}
}

// NewVerifier creates a verifier expecting tokens issued by the configured
// provider domain for the configured audience
func NewVerifier(cfg config.AuthConfig, keys KeyResolver, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		issuer:   cfg.Issuer(),
		audience: cfg.Audience,
		leeway:   cfg.ClockSkew,
		keys:     keys,
		now:      time.Now,
		tracer:   otel.Tracer("github.com/castingagency/gatekeeper/pkg/auth"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks the token's signature, expiry, audience and issuer, in that
// order, and returns the decoded claims. Claims are nil whenever err is not.
func (v *Verifier) Verify(ctx context.Context, token string) (Claims, error) {
	ctx, span := v.tracer.Start(ctx, "auth.Verify")
	defer span.End()

	claims, err := v.verify(ctx, token)
	if err != nil {
		if authErr, ok := AsError(err); ok {
			span.SetAttributes(attribute.String("auth.failure", authErr.Name()))
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return claims, nil
}

func (v *Verifier) verify(ctx context.Context, token string) (Claims, error) {
	parsed, err := jwt.ParseSigned(token, parseAlgorithms)
	if err != nil {
		return nil, newError(KindInvalidHeader, descMalformed, err)
	}
	if len(parsed.Headers) != 1 {
		return nil, newError(KindInvalidHeader, descMalformed, nil)
	}

	header := parsed.Headers[0]
	if header.Algorithm != string(SigningAlgorithm) {
		return nil, newError(KindInvalidHeader, descUnsupportedAlg, nil)
	}

	key, err := v.keys.Key(ctx, header.KeyID)
	if err != nil {
		return nil, keyError(err)
	}

	var (
		claims     Claims
		registered jwt.Claims
	)
	if err := parsed.Claims(key.Public, &claims, &registered); err != nil {
		return nil, newError(KindInvalidHeader, descUnparsable, err)
	}

	if err := v.validate(registered); err != nil {
		return nil, err
	}

	return claims, nil
}

func (v *Verifier) validate(registered jwt.Claims) error {
	now := v.now()

	if registered.Expiry == nil {
		return newError(KindInvalidClaims, descExpiryRequired, nil)
	}
	if !registered.Expiry.Time().Add(v.leeway).After(now) {
		return newError(KindTokenExpired, descExpired, nil)
	}
	if registered.NotBefore != nil && now.Add(v.leeway).Before(registered.NotBefore.Time()) {
		return newError(KindInvalidClaims, descNotYetValid, nil)
	}

	if !registered.Audience.Contains(v.audience) || registered.Issuer != v.issuer {
		return newError(KindInvalidClaims, descIncorrectClaims, nil)
	}

	return nil
}

func keyError(err error) *Error {
	switch {
	case errors.Is(err, jwks.ErrMissingKeyID):
		return newError(KindInvalidHeader, descMalformed, err)
	case errors.Is(err, jwks.ErrKeyNotFound):
		return newError(KindInvalidHeader, descKeyNotFound, err)
	case errors.Is(err, jwks.ErrUnavailable):
		return newError(KindUpstreamUnavailable, descKeysUnavailable, err)
	default:
		return newError(KindInvalidHeader, descUnparsable, err)
	}
}
