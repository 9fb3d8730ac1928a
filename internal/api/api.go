// Package api holds the per-resource clients for the restaurant REST
// backend. Each client is a thin mapping from a domain operation to one HTTP
// call with shared contracts:
//
//   - every request carries the bearer token when one is present;
//   - a 401 triggers the forced-logout hook UNLESS the payload signals
//     "no role assigned yet" (see errors.go);
//   - writes never retry — a retry, if wanted, is a caller decision;
//   - errors are logged for diagnostics and always returned, never hidden.
package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dinesync/dinesync/pkg/httpkit"
	"github.com/dinesync/dinesync/pkg/logger"
	"github.com/dinesync/dinesync/pkg/metrics"
)

// API bundles the resource clients over one shared base client.
type API struct {
	c *client

	Users      *UsersClient
	Items      *ItemsClient
	Categories *CategoriesClient
	Menus      *MenusClient
	Tables     *TablesClient
	Orders     *OrdersClient
	Cart       *CartClient
}

// New builds the client set. tokenFunc supplies the current bearer token
// (empty when logged out); onUnauthorized fires on session-invalid 401s.
func New(baseURL string, tokenFunc func() string) *API {
	c := &client{base: baseURL, token: tokenFunc}
	return &API{
		c:          c,
		Users:      &UsersClient{c},
		Items:      &ItemsClient{c},
		Categories: &CategoriesClient{c},
		Menus:      &MenusClient{c},
		Tables:     &TablesClient{c},
		Orders:     &OrdersClient{c},
		Cart:       &CartClient{c},
	}
}

// OnUnauthorized registers the forced-logout hook. The roleless-401 case
// never triggers it.
func (a *API) OnUnauthorized(fn func()) {
	a.c.onUnauthorized = fn
}

// client carries what every resource client shares.
type client struct {
	base           string
	token          func() string
	onUnauthorized func()
}

func (c *client) url(path string) string { return c.base + path }

// do executes req and decodes a 2xx body into dest (skipped when dest is
// nil). Non-2xx and transport failures come back as *Error.
func (c *client) do(ctx context.Context, req *httpkit.Request, resource, operation string, dest interface{}) error {
	start := time.Now()

	req.WithContext(ctx).
		Bearer(c.token()).
		Header("X-Correlation-ID", uuid.NewString())

	resp, err := req.Send()
	if err != nil {
		metrics.ObserveBackend(resource, operation, 0, start)
		apiErr := &Error{Resource: resource, Operation: operation, Message: err.Error(), Err: err}
		logger.Warn("api: transport failure", "resource", resource, "operation", operation, "error", err)
		return apiErr
	}

	metrics.ObserveBackend(resource, operation, resp.StatusCode, start)

	if !resp.OK() {
		code, message := parseErrorBody(resp.Raw)
		apiErr := &Error{
			Resource:  resource,
			Operation: operation,
			Status:    resp.StatusCode,
			Code:      code,
			Message:   message,
		}

		if apiErr.Unauthorized() && !apiErr.NoRole() && c.onUnauthorized != nil {
			c.onUnauthorized()
		}

		logger.Warn("api: backend error",
			"resource", resource, "operation", operation,
			"status", resp.StatusCode, "code", code)
		return apiErr
	}

	if dest == nil {
		return nil
	}
	if err := resp.JSON(dest); err != nil {
		return &Error{Resource: resource, Operation: operation, Message: "malformed response body", Err: err}
	}
	return nil
}

// raw executes req and returns the untouched 2xx body (file downloads).
func (c *client) raw(ctx context.Context, req *httpkit.Request, resource, operation string) ([]byte, error) {
	start := time.Now()

	req.WithContext(ctx).
		Bearer(c.token()).
		Header("X-Correlation-ID", uuid.NewString())

	resp, err := req.Send()
	if err != nil {
		metrics.ObserveBackend(resource, operation, 0, start)
		return nil, &Error{Resource: resource, Operation: operation, Message: err.Error(), Err: err}
	}
	metrics.ObserveBackend(resource, operation, resp.StatusCode, start)

	if !resp.OK() {
		code, message := parseErrorBody(resp.Raw)
		return nil, &Error{Resource: resource, Operation: operation, Status: resp.StatusCode, Code: code, Message: message}
	}
	return resp.Raw, nil
}
