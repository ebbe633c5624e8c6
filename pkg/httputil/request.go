package httputil

import (
	"net/http"

	"github.com/gorilla/mux"
)

// ParsePathString extracts a non-empty path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	str := mux.Vars(r)[key]
	if str == "" {
		return "", Unprocessable("missing path parameter: " + key)
	}
	return str, nil
}

// ParsePathStringOrError extracts a path parameter and writes an error
// response on failure
func ParsePathStringOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	val, err := ParsePathString(r, key)
	if err != nil {
		WriteError(w, r, err)
		return "", false
	}
	return val, true
}
