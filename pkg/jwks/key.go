package jwks

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// SigningKey is one RSA public key published by the identity provider
type SigningKey struct {
	KeyID     string `json:"kid"`
	KeyType   string `json:"kty"`
	Use       string `json:"use,omitempty"`
	Algorithm string `json:"alg,omitempty"`
	Modulus   string `json:"n"`
	Exponent  string `json:"e"`

	Public *rsa.PublicKey `json:"-"`
}

// document is the wire shape of a JWKS response
type document struct {
	Keys []json.RawMessage `json:"keys"`
}

// ParseKeySet decodes a JWKS document and returns its usable RSA signing
// keys. Entries that are not RSA, are published for another use or
// algorithm, have no key id, or fail to decode are skipped so that one odd
// key does not take the whole set down.
func ParseKeySet(raw []byte) ([]SigningKey, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode key set: %w", err)
	}
	if doc.Keys == nil {
		return nil, fmt.Errorf("key set has no keys member")
	}

	keys := make([]SigningKey, 0, len(doc.Keys))
	for _, entry := range doc.Keys {
		key, ok := parseKey(entry)
		if !ok {
			continue
		}
		keys = append(keys, key)
	}

	return keys, nil
}

func parseKey(entry json.RawMessage) (SigningKey, bool) {
	var key SigningKey
	if err := json.Unmarshal(entry, &key); err != nil {
		return SigningKey{}, false
	}
	if key.KeyID == "" || key.KeyType != "RSA" {
		return SigningKey{}, false
	}
	// use and alg are optional, but when present they must allow RS256 signatures
	if (key.Use != "" && key.Use != "sig") || (key.Algorithm != "" && key.Algorithm != "RS256") {
		return SigningKey{}, false
	}

	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(entry); err != nil {
		return SigningKey{}, false
	}
	pub, ok := jwk.Key.(*rsa.PublicKey)
	if !ok {
		return SigningKey{}, false
	}
	key.Public = pub

	return key, true
}
