package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// CodeRoleNotAssigned is the backend error code for an authenticated user
// that has not been given a role yet. A 401 carrying it must NOT log the
// user out — it routes to the onboarding-pending screen instead.
const CodeRoleNotAssigned = "ROLE_NOT_ASSIGNED"

// Error is the typed failure every client call returns on a non-2xx
// response or transport failure.
type Error struct {
	Resource  string // "orders", "items", …
	Operation string // "list", "update-status", …
	Status    int    // HTTP status, 0 for transport failures
	Code      string // backend error code, if any
	Message   string // backend error message or transport description
	Err       error  // wrapped transport error, if any
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api/%s: %s: %s", e.Resource, e.Operation, e.Message)
	}
	return fmt.Sprintf("api/%s: %s: backend returned %d: %s", e.Resource, e.Operation, e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Transport reports whether the failure never reached the backend.
func (e *Error) Transport() bool { return e.Status == 0 }

// Unauthorized reports a 401.
func (e *Error) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

// NoRole reports the authenticated-but-roleless 401 variant.
func (e *Error) NoRole() bool {
	return e.Status == http.StatusUnauthorized && e.Code == CodeRoleNotAssigned
}

// IsNoRole reports whether err is the roleless-401 case.
func IsNoRole(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.NoRole()
}

// IsStatus reports whether err is an api.Error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsConflict reports a 409, which is how the backend rejects re-completing
// an already completed order.
func IsConflict(err error) bool {
	return IsStatus(err, http.StatusConflict)
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Message string `json:"message"`
	ErrMsg  string `json:"error"`
	Code    string `json:"code"`
}

// parseErrorBody pulls code/message out of an error response, tolerating
// both {"message": …} and {"error": …} envelopes and non-JSON bodies.
func parseErrorBody(raw []byte) (code, message string) {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", string(raw)
	}
	message = body.Message
	if message == "" {
		message = body.ErrMsg
	}
	return body.Code, message
}
