package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/castingagency/gatekeeper/pkg/auth"
	"github.com/castingagency/gatekeeper/pkg/observability"
)

// ErrorBody is the failure response shared by authorization and request
// validation errors
type ErrorBody struct {
	Success     bool   `json:"success"`
	Description string `json:"description"`
	Name        string `json:"name"`
	StatusCode  int    `json:"status_code"`
}

// RequestError is a non-authorization failure raised while handling a
// request, such as a missing resource or an invalid body
type RequestError struct {
	Status      int
	Description string
}

// Error implements the error interface
func (e *RequestError) Error() string {
	return http.StatusText(e.Status) + ": " + e.Description
}

// Name returns the HTTP status text, e.g. "Not Found"
func (e *RequestError) Name() string {
	return http.StatusText(e.Status)
}

// NotFound returns a 404 request error
func NotFound(description string) *RequestError {
	return &RequestError{Status: http.StatusNotFound, Description: description}
}

// Unprocessable returns a 422 request error
func Unprocessable(description string) *RequestError {
	return &RequestError{Status: http.StatusUnprocessableEntity, Description: description}
}

// TooManyRequests returns a 429 request error
func TooManyRequests(description string) *RequestError {
	return &RequestError{Status: http.StatusTooManyRequests, Description: description}
}

// MethodNotAllowed returns a 405 request error
func MethodNotAllowed(description string) *RequestError {
	return &RequestError{Status: http.StatusMethodNotAllowed, Description: description}
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// ErrorBodyFor converts err into the wire error shape. Unknown errors become
// a generic 500 so internal details never reach the client.
func ErrorBodyFor(err error) ErrorBody {
	if authErr, ok := auth.AsError(err); ok {
		return ErrorBody{
			Description: authErr.Description,
			Name:        authErr.Name(),
			StatusCode:  authErr.Status,
		}
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return ErrorBody{
			Description: reqErr.Description,
			Name:        reqErr.Name(),
			StatusCode:  reqErr.Status,
		}
	}

	return ErrorBody{
		Description: "The server encountered an internal error.",
		Name:        http.StatusText(http.StatusInternalServerError),
		StatusCode:  http.StatusInternalServerError,
	}
}

// WriteError writes err as an error response and sets the status code
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	body := ErrorBodyFor(err)

	if body.StatusCode >= http.StatusInternalServerError {
		observability.FromContext(r.Context(), nil).WithFields(logrus.Fields{
			"status": body.StatusCode,
			"name":   body.Name,
		}).WithError(err).Error("request failed")
	}

	WriteJSON(w, body.StatusCode, body)
}

// NotFoundHandler answers unmatched routes with the shared error shape
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, NotFound("The requested URL was not found on the server."))
	})
}

// MethodNotAllowedHandler answers disallowed methods with the shared error shape
func MethodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, MethodNotAllowed("The method is not allowed for the requested URL."))
	})
}
