// Package realtime maintains the single shared event-stream connection used
// by every view. Order lifecycle events arriving on the socket are
// re-published on the process event bus under their wire names, so consumers
// subscribe to the bus and never touch the socket.
//
// The channel reconnects on its own with bounded backoff; when the attempt
// budget runs out it stays disconnected until Reconnect() is called.
// Connection-state changes surface as a single keyed notice that replaces
// itself instead of stacking.
package realtime

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/pkg/event"
	"github.com/dinesync/dinesync/pkg/logger"
	"github.com/dinesync/dinesync/pkg/metrics"
	"github.com/dinesync/dinesync/pkg/notify"
)

// Wire event names, shared with the backend.
const (
	EventWelcome           = "welcome"
	EventNewOrder          = "order:new-order"
	EventStatusChange      = "order:status-change"
	EventStatusPreparing   = "order:status-preparing"
	EventPaymentProcessing = "order:payment-processing"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB

	baseBackoff = 500 * time.Millisecond
	maxBackoff  = 30 * time.Second
	maxAttempts = 10
)

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// frame is the JSON envelope on the wire, both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Channel is the process-wide realtime connection. Construct once at
// bootstrap, Close once at shutdown.
type Channel struct {
	url     string
	bus     *event.Bus
	notices *notify.Center
	dialer  *websocket.Dialer

	mu     sync.Mutex
	state  State
	conn   *websocket.Conn
	send   chan frame
	closed bool
	gen    int // bumps on every (re)connect so stale pumps exit quietly
}

// NewChannel creates a channel for url. It does not connect.
func NewChannel(url string, bus *event.Bus, notices *notify.Center) *Channel {
	return &Channel{
		url:     url,
		bus:     bus,
		notices: notices,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		state:   StateDisconnected,
	}
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials and starts the pumps. Safe to call only from a
// disconnected state; connected/connecting calls are no-ops.
//
// A failed dial is not fatal: the channel flips to reconnecting and keeps
// retrying with the same capped backoff used for mid-session drops, so a
// backend that is still booting picks the client up on its own. The dial
// error is still returned so the caller can log it.
func (c *Channel) Connect() error {
	c.mu.Lock()
	if c.closed || c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	if err := c.dial(); err != nil {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return err
		}
		c.state = StateReconnecting
		c.mu.Unlock()

		c.notice(notify.LevelWarning, "Live updates unavailable, retrying…")
		logger.Warn("realtime: initial dial failed, retrying", "error", err)
		go c.reconnectLoop()
		return err
	}
	return nil
}

// Reconnect resets the attempt budget and dials again after the automatic
// reconnect gave up. Like Connect, a failed dial keeps retrying in the
// background.
func (c *Channel) Reconnect() error {
	return c.Connect()
}

// Publish sends an advisory client→server event, typically a status-change
// broadcast after a local mutation succeeded server-side.
func (c *Channel) Publish(eventName string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("realtime: marshal %s: %w", eventName, err)
	}

	c.mu.Lock()
	send := c.send
	state := c.state
	c.mu.Unlock()

	if state != StateConnected || send == nil {
		return fmt.Errorf("realtime: not connected (state %s)", state)
	}

	select {
	case send <- frame{Event: eventName, Data: data}:
		return nil
	default:
		return fmt.Errorf("realtime: send buffer full, dropped %s", eventName)
	}
}

// Close tears the connection down for good.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}
}

// ─── Dial and pumps ───────────────────────────────────────────────────────────

func (c *Channel) dial() error {
	conn, _, err := c.dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("realtime: dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	c.conn = conn
	c.send = make(chan frame, 256)
	c.state = StateConnected
	c.gen++
	gen := c.gen
	send := c.send
	c.mu.Unlock()

	c.notice(notify.LevelSuccess, "Live updates connected")
	logger.Info("realtime: connected", "url", c.url)

	go c.readPump(conn, gen)
	go c.writePump(conn, send, gen)
	return nil
}

// readPump pumps server frames onto the event bus until the connection dies.
func (c *Channel) readPump(conn *websocket.Conn, gen int) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("realtime: unexpected close", "error", err)
			}
			c.onDisconnect(gen)
			return
		}

		var f frame
		if err := json.Unmarshal(msg, &f); err != nil {
			logger.Warn("realtime: dropping malformed frame", "error", err)
			continue
		}
		c.dispatch(f)
	}
}

// writePump drains the send buffer and keeps the connection alive with pings.
func (c *Channel) writePump(conn *websocket.Conn, send chan frame, gen int) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case f, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(f); err != nil {
				return // readPump notices the dead connection
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch republishes a server frame on the event bus. Order events carry
// the full updated order; anything that fails to decode is dropped, not
// fatal.
func (c *Channel) dispatch(f frame) {
	metrics.RealtimeEvents.WithLabelValues(f.Event).Inc()

	switch f.Event {
	case EventNewOrder, EventStatusChange, EventStatusPreparing, EventPaymentProcessing:
		var order models.Order
		if err := json.Unmarshal(f.Data, &order); err != nil {
			logger.Warn("realtime: undecodable order payload", "event", f.Event, "error", err)
			return
		}
		c.bus.Fire(f.Event, order)
	case EventWelcome:
		c.bus.Fire(EventWelcome, string(f.Data))
	default:
		logger.Debug("realtime: ignoring unknown event", "event", f.Event)
	}
}

// ─── Reconnect loop ───────────────────────────────────────────────────────────

func (c *Channel) onDisconnect(gen int) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return // stale pump or deliberate shutdown
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state = StateReconnecting
	c.mu.Unlock()

	c.notice(notify.LevelWarning, "Live updates lost, reconnecting…")
	logger.Warn("realtime: connection lost, reconnecting")

	go c.reconnectLoop()
}

func (c *Channel) reconnectLoop() {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Bounded exponential backoff: base × 2^(attempt-1), capped.
		backoff := time.Duration(float64(baseBackoff) * math.Pow(2, float64(attempt-1)))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		time.Sleep(backoff)

		c.mu.Lock()
		if c.closed || c.state != StateReconnecting {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		if err := c.dial(); err != nil {
			metrics.RealtimeReconnects.WithLabelValues("failure").Inc()
			logger.Warn("realtime: reconnect failed", "attempt", attempt, "error", err)
			continue
		}
		metrics.RealtimeReconnects.WithLabelValues("success").Inc()
		return
	}

	c.setState(StateDisconnected)
	c.notice(notify.LevelError, "Live updates unavailable, reconnect manually")
	logger.Error("realtime: reconnect attempts exhausted", "attempts", maxAttempts)
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Channel) notice(level notify.Level, message string) {
	if c.notices == nil {
		return
	}
	c.notices.Post(notify.Notice{Key: notify.KeyRealtime, Level: level, Message: message})
}
