// Package httputil provides the shared HTTP plumbing of the gateway: the
// error response shape, JSON helpers and request middleware.
//
// # Error Responses
//
// Every failure, whether raised by authorization or by request handling,
// is written with the same body:
//
//	{"success": false, "name": "invalid_claims", "description": "Permission not found.", "status_code": 401}
//
// Authorization errors keep their own name and status. Request errors use
// the HTTP status text as the name. Anything else is reported as a generic
// 500 so internal details stay in the logs.
//
//	httputil.WriteError(w, r, err)
//	httputil.WriteError(w, r, httputil.NotFound("no such movie"))
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware,
//	)
package httputil
