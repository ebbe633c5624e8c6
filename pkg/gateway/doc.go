// Package gateway serves the authorizing reverse proxy.
//
// Each Route maps a method and path template to the permission it needs.
// Authorized requests are forwarded to the upstream resource service with
// the caller's identity in X-Auth-Subject and X-Auth-Permissions. Copies of
// those headers sent by clients are always dropped.
//
// Besides the route table the server answers:
//
//	GET /healthz         liveness
//	GET /readyz          readiness, loads signing keys if none are cached
//	GET /metrics         Prometheus exposition
//	GET /verify/{token}  token check that echoes the token's permissions
//
// A route table can be loaded from YAML:
//
//	routes:
//	  - method: GET
//	    path: /actors
//	    permission: view:actors
package gateway
