package session_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/internal/session"
	"github.com/dinesync/dinesync/pkg/event"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "42", "exp": exp.Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func tokenWithoutExpiry(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"}).
		SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func newStore(t *testing.T) (*session.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	return session.NewStore(path, event.NewBus()), path
}

func TestLoginPersistsTokenAndRole(t *testing.T) {
	store, path := newStore(t)

	role := models.RoleWaiter
	require.NoError(t, store.Login(signedToken(t, time.Now().Add(time.Hour)), &role))

	// A fresh store over the same file sees the same session.
	reopened := session.NewStore(path, event.NewBus())
	assert.NotEmpty(t, reopened.Token())
	got, ok := reopened.Role()
	assert.True(t, ok)
	assert.Equal(t, models.RoleWaiter, got)
}

func TestLoginWithoutRole(t *testing.T) {
	store, path := newStore(t)
	require.NoError(t, store.Login(signedToken(t, time.Now().Add(time.Hour)), nil))

	_, ok := store.Role()
	assert.False(t, ok)

	reopened := session.NewStore(path, event.NewBus())
	_, ok = reopened.Role()
	assert.False(t, ok)
}

func TestLogoutClearsEverything(t *testing.T) {
	store, path := newStore(t)
	role := models.RoleChef
	require.NoError(t, store.Login(signedToken(t, time.Now().Add(time.Hour)), &role))
	require.NoError(t, store.Logout())

	assert.Empty(t, store.Token())
	_, ok := store.Role()
	assert.False(t, ok)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "token\":\"ey")
}

func TestIsExpired(t *testing.T) {
	store, _ := newStore(t)

	// No token at all.
	assert.True(t, store.IsExpired())

	role := models.RoleAdmin
	require.NoError(t, store.Login(signedToken(t, time.Now().Add(time.Hour)), &role))
	assert.False(t, store.IsExpired())
	assert.True(t, store.IsValid())

	require.NoError(t, store.Login(signedToken(t, time.Now().Add(-time.Minute)), &role))
	assert.True(t, store.IsExpired())
	assert.False(t, store.IsValid())
}

func TestIsExpiredFailsClosed(t *testing.T) {
	store, _ := newStore(t)
	role := models.RoleAdmin

	// Garbage that is not a JWT.
	require.NoError(t, store.Login("not-a-jwt", &role))
	assert.True(t, store.IsExpired())

	// Valid JWT with no expiry claim.
	require.NoError(t, store.Login(tokenWithoutExpiry(t), &role))
	assert.True(t, store.IsExpired())
}

func TestSessionEvents(t *testing.T) {
	bus := event.NewBus()
	path := filepath.Join(t.TempDir(), "session.json")
	store := session.NewStore(path, bus)

	var fired []string
	bus.Subscribe(session.EventLoggedIn, func(interface{}) { fired = append(fired, "in") })
	bus.Subscribe(session.EventLoggedOut, func(interface{}) { fired = append(fired, "out") })

	role := models.RoleWaiter
	require.NoError(t, store.Login(signedToken(t, time.Now().Add(time.Hour)), &role))
	require.NoError(t, store.Logout())

	assert.Equal(t, []string{"in", "out"}, fired)
}

func TestWatchForcesLogoutOnExpiry(t *testing.T) {
	bus := event.NewBus()
	path := filepath.Join(t.TempDir(), "session.json")
	store := session.NewStore(path, bus)

	expired := make(chan struct{}, 1)
	bus.Subscribe(session.EventExpired, func(interface{}) {
		select {
		case expired <- struct{}{}:
		default:
		}
	})

	role := models.RoleWaiter
	require.NoError(t, store.Login(signedToken(t, time.Now().Add(20*time.Millisecond)), &role))

	stop := store.Watch(10 * time.Millisecond)
	defer stop()

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry watch never fired")
	}

	assert.Eventually(t, func() bool { return store.Token() == "" }, time.Second, 10*time.Millisecond)
}

func TestWatchStopIsIdempotent(t *testing.T) {
	store, _ := newStore(t)
	stop := store.Watch(time.Hour)
	stop()
	stop()

	// A new watch can start after the old one stopped.
	stop2 := store.Watch(time.Hour)
	stop2()
}
