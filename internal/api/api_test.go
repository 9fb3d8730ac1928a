package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/internal/api"
)

func newAPI(handler http.Handler) (*api.API, *httptest.Server) {
	srv := httptest.NewServer(handler)
	a := api.New(srv.URL, func() string { return "test-token" })
	return a, srv
}

func TestLoginParsesNumericRole(t *testing.T) {
	a, srv := newAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "chef@example.com", body["email"])
		json.NewEncoder(w).Encode(map[string]string{"token": "abc", "role": "2"})
	}))
	defer srv.Close()

	res, err := a.Users.Login(context.Background(), "chef@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Token)
	require.NotNil(t, res.Role)
	assert.Equal(t, models.RoleChef, *res.Role)
}

func TestLoginWithoutRoleYieldsNil(t *testing.T) {
	a, srv := newAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "abc"})
	}))
	defer srv.Close()

	res, err := a.Users.Login(context.Background(), "new@example.com", "secret")
	require.NoError(t, err)
	assert.Nil(t, res.Role)
}

func TestBearerAndCorrelationHeaders(t *testing.T) {
	a, srv := newAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Correlation-ID"))
		json.NewEncoder(w).Encode(api.User{ID: 1, Name: "A"})
	}))
	defer srv.Close()

	_, err := a.Users.Me(context.Background())
	require.NoError(t, err)
}

func TestPlainUnauthorizedTriggersLogoutHook(t *testing.T) {
	a, srv := newAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "token invalid"})
	}))
	defer srv.Close()

	loggedOut := false
	a.OnUnauthorized(func() { loggedOut = true })

	_, err := a.Users.Me(context.Background())
	require.Error(t, err)
	assert.True(t, loggedOut)
	assert.False(t, api.IsNoRole(err))
}

func TestRolelessUnauthorizedDoesNotLogOut(t *testing.T) {
	a, srv := newAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    api.CodeRoleNotAssigned,
			"message": "no role assigned",
		})
	}))
	defer srv.Close()

	loggedOut := false
	a.OnUnauthorized(func() { loggedOut = true })

	_, err := a.Users.Me(context.Background())
	require.Error(t, err)
	assert.False(t, loggedOut)
	assert.True(t, api.IsNoRole(err))
}

func TestErrorEnvelopeVariants(t *testing.T) {
	a, srv := newAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"table not found"}`))
	}))
	defer srv.Close()

	_, err := a.Tables.Get(context.Background(), 9)
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "table not found", apiErr.Message)
	assert.True(t, api.IsStatus(err, http.StatusBadRequest))
}

func TestTransportFailure(t *testing.T) {
	a := api.New("http://127.0.0.1:1", func() string { return "" })

	_, err := a.Orders.List(context.Background())
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Transport())
}

func TestUpdateStatusRefusesIllegalTransitionLocally(t *testing.T) {
	called := false
	a, srv := newAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := a.Orders.UpdateStatus(context.Background(), 1, models.StatusPending, models.StatusDelivered)
	require.Error(t, err)
	assert.False(t, called, "illegal transition must not reach the backend")
}

func TestUpdateStatusSendsLegalTransition(t *testing.T) {
	a, srv := newAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/orders/7/status", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, string(models.StatusReady), body["status"])
		json.NewEncoder(w).Encode(models.Order{ID: 7, Status: models.StatusReady})
	}))
	defer srv.Close()

	order, err := a.Orders.UpdateStatus(context.Background(), 7, models.StatusPreparing, models.StatusReady)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, order.Status)
}

func TestCompletePOSConflict(t *testing.T) {
	a, srv := newAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "order already completed"})
	}))
	defer srv.Close()

	_, err := a.Orders.CompletePOS(context.Background(), api.PaymentRequest{OrderID: 1})
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
}

func TestCategoryDeleteGuarded(t *testing.T) {
	deleted := false
	a, srv := newAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/items/category/3":
			json.NewEncoder(w).Encode([]models.MenuItem{{ID: 1, CategoryID: 3}})
		case r.Method == http.MethodDelete:
			deleted = true
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	err := a.Categories.DeleteGuarded(context.Background(), a.Items, 3)
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
	assert.False(t, deleted, "delete must not fire while items reference the category")
}

func TestPlaceOrderReturnsOrder(t *testing.T) {
	a, srv := newAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tables/5/place-order", r.URL.Path)
		json.NewEncoder(w).Encode(models.Order{ID: 31, TableID: 5, Status: models.StatusPending})
	}))
	defer srv.Close()

	order, err := a.Cart.PlaceOrder(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 31, order.ID)
}
