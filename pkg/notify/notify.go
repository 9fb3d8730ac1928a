// Package notify holds the transient user-facing notices ("toasts") raised by
// the rest of the app: write failures, realtime connection changes, session
// expiry.
//
// Notices are keyed: posting a notice with the key of a live notice replaces
// it in place instead of stacking a duplicate, which is what keeps repeated
// "reconnecting…" updates from piling up. Every notice auto-dismisses after
// its TTL.
//
//	center := notify.NewCenter(bus)
//	center.Error("order-update", "Could not update order #42")
//	center.Info(notify.KeyRealtime, "Connection lost, reconnecting…")
package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dinesync/dinesync/pkg/event"
)

// KeyRealtime is the stable key for realtime connection-state notices.
const KeyRealtime = "realtime-connection"

// Changed is the bus event fired whenever the set of active notices changes.
const Changed = "notify:changed"

// DefaultTTL is how long a notice stays visible unless dismissed earlier.
const DefaultTTL = 5 * time.Second

// Level classifies a notice for presentation.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a single transient message.
type Notice struct {
	ID      string        `json:"id"`
	Key     string        `json:"key"`
	Level   Level         `json:"level"`
	Message string        `json:"message"`
	At      time.Time     `json:"at"`
	TTL     time.Duration `json:"-"`
}

// Center owns the active notices and their dismissal timers.
type Center struct {
	mu      sync.Mutex
	active  map[string]Notice // by key
	timers  map[string]*time.Timer
	bus     *event.Bus
	nowFunc func() time.Time
}

// NewCenter creates a Center that announces changes on bus.
func NewCenter(bus *event.Bus) *Center {
	return &Center{
		active:  map[string]Notice{},
		timers:  map[string]*time.Timer{},
		bus:     bus,
		nowFunc: time.Now,
	}
}

// Post adds (or replaces, when the key is already live) a notice.
// A zero Key gets a random one; a zero TTL gets DefaultTTL.
func (c *Center) Post(n Notice) Notice {
	if n.Key == "" {
		n.Key = uuid.NewString()
	}
	n.ID = uuid.NewString()
	if n.TTL <= 0 {
		n.TTL = DefaultTTL
	}
	if n.Level == "" {
		n.Level = LevelInfo
	}

	c.mu.Lock()
	n.At = c.nowFunc()
	c.active[n.Key] = n

	// Same key replaces: restart its dismissal clock.
	if t, ok := c.timers[n.Key]; ok {
		t.Stop()
	}
	key := n.Key
	c.timers[key] = time.AfterFunc(n.TTL, func() { c.Dismiss(key) })
	c.mu.Unlock()

	c.fireChanged()
	return n
}

// Info posts an info-level notice under key.
func (c *Center) Info(key, message string) Notice {
	return c.Post(Notice{Key: key, Level: LevelInfo, Message: message})
}

// Success posts a success-level notice under key.
func (c *Center) Success(key, message string) Notice {
	return c.Post(Notice{Key: key, Level: LevelSuccess, Message: message})
}

// Warning posts a warning-level notice under key.
func (c *Center) Warning(key, message string) Notice {
	return c.Post(Notice{Key: key, Level: LevelWarning, Message: message})
}

// Error posts an error-level notice under key.
func (c *Center) Error(key, message string) Notice {
	return c.Post(Notice{Key: key, Level: LevelError, Message: message})
}

// Dismiss removes the notice stored under key, if any.
func (c *Center) Dismiss(key string) {
	c.mu.Lock()
	_, ok := c.active[key]
	if ok {
		delete(c.active, key)
		if t, found := c.timers[key]; found {
			t.Stop()
			delete(c.timers, key)
		}
	}
	c.mu.Unlock()

	if ok {
		c.fireChanged()
	}
}

// Active returns the live notices, oldest first.
func (c *Center) Active() []Notice {
	c.mu.Lock()
	out := make([]Notice, 0, len(c.active))
	for _, n := range c.active {
		out = append(out, n)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// OnChange subscribes to notice-set changes; cancel the returned handle on
// teardown.
func (c *Center) OnChange(fn func()) *event.Subscription {
	return c.bus.Subscribe(Changed, func(interface{}) { fn() })
}

// Close stops all pending dismissal timers.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, t := range c.timers {
		t.Stop()
		delete(c.timers, k)
	}
	c.active = map[string]Notice{}
}

func (c *Center) fireChanged() {
	if c.bus != nil {
		c.bus.Fire(Changed, nil)
	}
}
