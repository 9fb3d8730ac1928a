// Package session persists the authenticated session: exactly two durable
// values, the bearer token and the numeric role code.
//
// Expiry is decided locally by decoding the token's expiry claim — no server
// round trip — and anything that fails to decode counts as expired
// (fail-closed). A background watcher re-checks on a fixed tick while the
// session is active and force-logs-out when the token lapses; it is the only
// autonomous background behaviour in the app and must be stopped on teardown.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/pkg/event"
	"github.com/dinesync/dinesync/pkg/logger"
)

// Bus events fired on session changes.
const (
	EventLoggedIn  = "session:logged-in"
	EventLoggedOut = "session:logged-out"
	EventExpired   = "session:expired"
)

// persisted is the on-disk shape. Role is a numeric string; absent means
// "signed up but not yet role-assigned".
type persisted struct {
	Token string `json:"token,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Store is the explicitly constructed session service. One per process.
type Store struct {
	mu      sync.Mutex
	path    string
	token   string
	role    models.Role
	hasRole bool

	bus     *event.Bus
	nowFunc func() time.Time

	watchStop chan struct{}
	watchOnce *sync.Once
}

// NewStore loads any previously persisted session from path.
func NewStore(path string, bus *event.Bus) *Store {
	s := &Store{path: path, bus: bus, nowFunc: time.Now}
	s.load()
	return s
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return // no prior session
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		logger.Warn("session: discarding unreadable session file", "path", s.path, "error", err)
		return
	}
	s.token = p.Token
	if p.Role != "" {
		if code, err := strconv.Atoi(p.Role); err == nil {
			s.role = models.Role(code)
			s.hasRole = true
		}
	}
}

func (s *Store) persist() error {
	p := persisted{Token: s.token}
	if s.hasRole {
		p.Role = strconv.Itoa(int(s.role))
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: mkdir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", s.path, err)
	}
	return nil
}

// Login persists the token. A nil role clears any previously stored role,
// which is the "signed up but not yet role-assigned" state.
func (s *Store) Login(token string, role *models.Role) error {
	s.mu.Lock()
	s.token = token
	if role != nil {
		s.role = *role
		s.hasRole = true
	} else {
		s.role = models.RoleNone
		s.hasRole = false
	}
	err := s.persist()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.fire(EventLoggedIn)
	return nil
}

// Logout clears token and role from durable storage. Callable from anywhere,
// including as a side effect of a failed authenticated request; the gateway
// reacts to the logged-out event by sending the user to the login entry.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.role = models.RoleNone
	s.hasRole = false
	err := s.persist()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.fire(EventLoggedOut)
	return nil
}

// Token returns the stored bearer token ("" when logged out).
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Role returns the stored role and whether one has been assigned.
func (s *Store) Role() (models.Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role, s.hasRole
}

// IsExpired decodes the token's expiry claim and compares it to now.
// A missing token, a malformed token, or a missing claim all count as
// expired.
func (s *Store) IsExpired() bool {
	s.mu.Lock()
	token := s.token
	now := s.nowFunc()
	s.mu.Unlock()

	if token == "" {
		return true
	}

	// Unverified parse: we only need the expiry claim, the backend is the
	// one verifying signatures.
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !exp.Time.After(now)
}

// IsValid reports token present AND not expired.
func (s *Store) IsValid() bool {
	return s.Token() != "" && !s.IsExpired()
}

// Watch starts the periodic expiry check and returns a stop function that
// must be called on teardown. Stop is idempotent. A second Watch call while
// one is running replaces nothing and returns a no-op stop.
func (s *Store) Watch(interval time.Duration) (stop func()) {
	s.mu.Lock()
	if s.watchStop != nil {
		s.mu.Unlock()
		return func() {}
	}
	done := make(chan struct{})
	s.watchStop = done
	once := &sync.Once{}
	s.watchOnce = once
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if s.Token() != "" && s.IsExpired() {
					logger.Info("session: token expired, forcing logout")
					s.fire(EventExpired)
					_ = s.Logout()
				}
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(done)
			s.mu.Lock()
			if s.watchStop == done {
				s.watchStop = nil
			}
			s.mu.Unlock()
		})
	}
}

func (s *Store) fire(name string) {
	if s.bus != nil {
		s.bus.Fire(name, nil)
	}
}
