package gateway

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRoutes(t *testing.T) {
	routes := DefaultRoutes()
	require.NoError(t, ValidateRoutes(routes))
	assert.Len(t, routes, 14)

	byRoute := make(map[string]string, len(routes))
	for _, r := range routes {
		byRoute[r.String()] = r.Permission
	}
	assert.Equal(t, "view:actors", byRoute["GET /actors"])
	assert.Equal(t, "view:movies", byRoute["GET /roles"])
	assert.Equal(t, "book:actors", byRoute["POST /actor/{actor_id}/role/{role_id}"])
	assert.Equal(t, "delete:roles", byRoute["DELETE /role/{id}"])
	assert.Equal(t, "edit:movies", byRoute["PATCH /movie/{id}"])
}

func TestLoadRoutes(t *testing.T) {
	doc := `
routes:
  - method: get
    path: /actors
    permission: view:actors
  - method: POST
    path: " /actor "
    permission: add:actors
  - method: GET
    path: /public
`
	routes, err := LoadRoutes(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []Route{
		{Method: "GET", Path: "/actors", Permission: "view:actors"},
		{Method: "POST", Path: "/actor", Permission: "add:actors"},
		{Method: "GET", Path: "/public", Permission: ""},
	}, routes)
}

func TestLoadRoutes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "empty document", doc: "", wantErr: "empty"},
		{name: "no routes", doc: "routes: []", wantErr: "empty"},
		{name: "unknown field", doc: "routes:\n  - method: GET\n    path: /a\n    scope: x\n", wantErr: "scope"},
		{name: "not yaml", doc: "routes: [", wantErr: "parse"},
		{name: "bad method", doc: "routes:\n  - method: FETCH\n    path: /a\n", wantErr: "unsupported method"},
		{name: "relative path", doc: "routes:\n  - method: GET\n    path: actors\n", wantErr: "must start with /"},
		{name: "reserved path", doc: "routes:\n  - method: GET\n    path: /metrics\n", wantErr: "reserved"},
		{name: "reserved prefix", doc: "routes:\n  - method: GET\n    path: /verify/{token}\n", wantErr: "reserved"},
		{
			name:    "duplicate",
			doc:     "routes:\n  - method: GET\n    path: /a\n  - method: get\n    path: /a\n",
			wantErr: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRoutes(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRoutesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - method: DELETE\n    path: /movie/{id}\n    permission: delete:movies\n"), 0o600))

	routes, err := LoadRoutesFile(path)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "DELETE /movie/{id}", routes[0].String())

	_, err = LoadRoutesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
