package gateway

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Route binds a method and mux path template to the permission it requires
type Route struct {
	Method     string `yaml:"method"`
	Path       string `yaml:"path"`
	Permission string `yaml:"permission"`
}

// String returns "METHOD /path"
func (r Route) String() string {
	return r.Method + " " + r.Path
}

// routeFile is the YAML document accepted by LoadRoutes
type routeFile struct {
	Routes []Route `yaml:"routes"`
}

// DefaultRoutes returns the casting agency route table
func DefaultRoutes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/actors", Permission: "view:actors"},
		{Method: http.MethodGet, Path: "/movies", Permission: "view:movies"},
		{Method: http.MethodGet, Path: "/roles", Permission: "view:movies"},
		{Method: http.MethodGet, Path: "/movie/{id}", Permission: "view:movies"},
		{Method: http.MethodPost, Path: "/actor", Permission: "add:actors"},
		{Method: http.MethodPost, Path: "/movie", Permission: "add:movies"},
		{Method: http.MethodPost, Path: "/roles/{id}", Permission: "add:roles"},
		{Method: http.MethodPost, Path: "/actor/{actor_id}/role/{role_id}", Permission: "book:actors"},
		{Method: http.MethodDelete, Path: "/actor/{id}", Permission: "delete:actors"},
		{Method: http.MethodDelete, Path: "/movie/{id}", Permission: "delete:movies"},
		{Method: http.MethodDelete, Path: "/role/{id}", Permission: "delete:roles"},
		{Method: http.MethodPatch, Path: "/actor/{id}", Permission: "edit:actors"},
		{Method: http.MethodPatch, Path: "/movie/{id}", Permission: "edit:movies"},
		{Method: http.MethodPatch, Path: "/role/{id}", Permission: "edit:roles"},
	}
}

// LoadRoutesFile reads a route table from a YAML file
func LoadRoutesFile(path string) ([]Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes file: %w", err)
	}
	routes, err := LoadRoutes(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return routes, nil
}

// LoadRoutes decodes and validates a route table. Unknown fields are rejected.
//
//	routes:
//	  - method: GET
//	    path: /actors
//	    permission: view:actors
func LoadRoutes(r io.Reader) ([]Route, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc routeFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("routes file is empty")
		}
		return nil, fmt.Errorf("failed to parse routes: %w", err)
	}

	for i := range doc.Routes {
		doc.Routes[i].Method = strings.ToUpper(strings.TrimSpace(doc.Routes[i].Method))
		doc.Routes[i].Path = strings.TrimSpace(doc.Routes[i].Path)
		doc.Routes[i].Permission = strings.TrimSpace(doc.Routes[i].Permission)
	}

	if err := ValidateRoutes(doc.Routes); err != nil {
		return nil, err
	}
	return doc.Routes, nil
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
	http.MethodHead:   true,
}

// reservedPaths are served by the gateway itself
var reservedPaths = []string{"/healthz", "/readyz", "/metrics", "/verify"}

// ValidateRoutes checks that a route table is usable
func ValidateRoutes(routes []Route) error {
	if len(routes) == 0 {
		return errors.New("route table is empty")
	}

	seen := make(map[string]bool, len(routes))
	for i, route := range routes {
		if !allowedMethods[route.Method] {
			return fmt.Errorf("route %d: unsupported method %q", i, route.Method)
		}
		if !strings.HasPrefix(route.Path, "/") {
			return fmt.Errorf("route %d: path %q must start with /", i, route.Path)
		}
		for _, reserved := range reservedPaths {
			if route.Path == reserved || strings.HasPrefix(route.Path, reserved+"/") {
				return fmt.Errorf("route %d: path %q is reserved", i, route.Path)
			}
		}
		key := route.String()
		if seen[key] {
			return fmt.Errorf("route %d: duplicate route %s", i, key)
		}
		seen[key] = true
	}

	return nil
}
