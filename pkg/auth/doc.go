// Package auth verifies bearer tokens issued by the identity provider and
// checks the permissions they carry.
//
// # Pipeline
//
// A request is authorized in three steps. Each step returns an *Error
// whose Kind is the name written to clients.
//
//	token, err := auth.TokenFromRequest(r)     // authorization_header_missing, invalid_header
//	claims, err := verifier.Verify(ctx, token) // invalid_header, token_expired, invalid_claims, upstream_unavailable
//	err = auth.CheckPermission("view:actors", claims)
//
// # Verification
//
// Only RS256 is accepted. The signing key is looked up by the token's kid
// through a KeyResolver, normally a *jwks.Cache. The verifier then checks
// exp, nbf, the audience and the issuer, in that order of precedence:
// an expired token is reported as token_expired even when other claims are
// also wrong.
//
//	verifier := auth.NewVerifier(cfg.Auth, keys)
//
// # Permissions
//
// Permissions are exact strings from the token's "permissions" array.
// There is no prefix or wildcard matching. An empty required permission
// only asks for a valid token.
//
// Test helpers that mint tokens and serve a key set live in
// pkg/auth/authtest.
package auth
