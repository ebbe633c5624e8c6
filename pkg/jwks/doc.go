// Package jwks fetches and caches the identity provider's published
// signing keys.
//
// Keys are cached by kid with a TTL. A lookup for an unknown kid triggers a
// reload of the key set, which handles key rotation. Reloads for unknown
// kids are throttled by MinRefreshInterval, and concurrent misses for the
// same kid share one fetch. A fetch runs detached from the request that
// triggered it and is bounded by FetchTimeout.
//
//	keys := jwks.NewCache(
//		jwks.NewHTTPFetcher(cfg.Auth.JWKSURL(), nil, cfg.Auth.FetchTimeout),
//		nil,
//		jwks.WithStore(jwks.NewRedisStore(client, cfg.Auth.JWKSURL(), time.Hour)),
//	)
//	key, err := keys.Key(ctx, kid)
//
// The optional DocumentStore shares the raw key set between replicas so a
// fleet restart does not hit the provider once per instance. Keys loaded
// from it expire with the stored document.
package jwks
