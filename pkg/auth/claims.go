package auth

// Claims is the decoded payload of a verified token. It is an open mapping
// so provider-specific claims survive verification untouched.
type Claims map[string]any

// Issuer returns the "iss" claim
func (c Claims) Issuer() string {
	return c.stringClaim("iss")
}

// Subject returns the "sub" claim
func (c Claims) Subject() string {
	return c.stringClaim("sub")
}

// Audience returns the "aud" claim, which may be a single string or a list
func (c Claims) Audience() []string {
	switch v := c["aud"].(type) {
	case string:
		return []string{v}
	case []any:
		return stringsOf(v)
	case []string:
		return v
	}
	return nil
}

// Permissions returns the "permissions" claim. The boolean is false when
// the claim is absent, null, or not a list.
func (c Claims) Permissions() ([]string, bool) {
	switch v := c["permissions"].(type) {
	case []any:
		return stringsOf(v), true
	case []string:
		return v, true
	}
	return nil, false
}

// HasPermission reports whether permission is an exact member of the
// permissions claim
func (c Claims) HasPermission(permission string) bool {
	perms, _ := c.Permissions()
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

func (c Claims) stringClaim(name string) string {
	s, _ := c[name].(string)
	return s
}

// stringsOf keeps the string entries of a decoded JSON array
func stringsOf(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
