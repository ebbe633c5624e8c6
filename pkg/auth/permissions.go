package auth

// CheckPermission grants access when required is empty or is an exact member
// of the claims' permission list. There is no prefix or wildcard matching.
func CheckPermission(required string, claims Claims) error {
	if required == "" {
		return nil
	}

	if _, err := PermissionsOf(claims); err != nil {
		return err
	}
	if !claims.HasPermission(required) {
		return newError(KindInvalidClaims, descPermissionNotFound, nil)
	}

	return nil
}

// PermissionsOf returns the permissions claim or an invalid_claims error
// when the token does not carry one
func PermissionsOf(claims Claims) ([]string, error) {
	perms, ok := claims.Permissions()
	if !ok {
		return nil, newError(KindInvalidClaims, descPermissionsMissing, nil)
	}
	return perms, nil
}
