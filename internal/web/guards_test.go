package web_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/internal/session"
	"github.com/dinesync/dinesync/internal/web"
	"github.com/dinesync/dinesync/pkg/event"
)

func liveToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{"sub": "1", "exp": time.Now().Add(time.Hour).Unix()}).
		SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func storeWithRole(t *testing.T, role *models.Role) *session.Store {
	t.Helper()
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"), event.NewBus())
	require.NoError(t, store.Login(liveToken(t), role))
	return store
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"), event.NewBus())
	h := web.RequireAuth(store)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/waiter/orders", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fwaiter%2Forders", rec.Header().Get("Location"))
}

func TestRequireAuthPassesValidSession(t *testing.T) {
	role := models.RoleWaiter
	store := storeWithRole(t, &role)
	h := web.RequireAuth(store)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/waiter/orders", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleBouncesWrongRoleHome(t *testing.T) {
	role := models.RoleChef
	store := storeWithRole(t, &role)
	h := web.RequireRole(store, models.RoleWaiter)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/waiter/orders", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/chef", rec.Header().Get("Location"))
}

func TestRequireRoleSendsRolelessToOnboarding(t *testing.T) {
	store := storeWithRole(t, nil)
	h := web.RequireRole(store, models.RoleWaiter)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/waiter/orders", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/onboarding", rec.Header().Get("Location"))
}

func TestRequireRoleAllowsListedRoles(t *testing.T) {
	role := models.RoleAdmin
	store := storeWithRole(t, &role)
	h := web.RequireRole(store, models.RoleWaiter, models.RoleAdmin)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/waiter/orders", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAssignedSendsRolelessToOnboarding(t *testing.T) {
	store := storeWithRole(t, nil)
	h := web.RequireAssigned(store)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/onboarding", rec.Header().Get("Location"))
}

func TestRequireAssignedPassesAnyRole(t *testing.T) {
	role := models.RoleChef
	store := storeWithRole(t, &role)
	h := web.RequireAssigned(store)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuestOnlyRedirectsAuthenticated(t *testing.T) {
	role := models.RolePOSAdmin
	store := storeWithRole(t, &role)
	h := web.GuestOnly(store)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/pos", rec.Header().Get("Location"))
}

func TestGuestOnlySendsRolelessToOnboarding(t *testing.T) {
	store := storeWithRole(t, nil)
	h := web.GuestOnly(store)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/onboarding", rec.Header().Get("Location"))
}

func TestGuestOnlyPassesAnonymous(t *testing.T) {
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"), event.NewBus())
	h := web.GuestOnly(store)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoleHome(t *testing.T) {
	assert.Equal(t, "/admin", web.RoleHome(models.RoleAdmin))
	assert.Equal(t, "/chef", web.RoleHome(models.RoleChef))
	assert.Equal(t, "/waiter", web.RoleHome(models.RoleWaiter))
	assert.Equal(t, "/pos", web.RoleHome(models.RolePOSAdmin))
	assert.Equal(t, "/menu", web.RoleHome(models.RoleCustomer))
	assert.Equal(t, "/menu", web.RoleHome(models.RoleNone))
}
