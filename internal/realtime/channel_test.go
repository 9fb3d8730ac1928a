package realtime_test

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/internal/realtime"
	"github.com/dinesync/dinesync/pkg/event"
	"github.com/dinesync/dinesync/pkg/notify"
)

var upgrader = websocket.Upgrader{}

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// echoServer upgrades, sends a welcome frame, then relays frames from the
// push channel and forwards published client frames to received.
func echoServer(t *testing.T, push <-chan wireFrame, received chan<- wireFrame) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteJSON(wireFrame{Event: "welcome", Data: json.RawMessage(`"hello"`)})

		go func() {
			for f := range push {
				if err := conn.WriteJSON(f); err != nil {
					return
				}
			}
		}()

		for {
			var f wireFrame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			if received != nil {
				received <- f
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnectAndWelcome(t *testing.T) {
	push := make(chan wireFrame)
	defer close(push)
	srv := echoServer(t, push, nil)
	defer srv.Close()

	bus := event.NewBus()
	welcome := make(chan interface{}, 1)
	bus.Subscribe(realtime.EventWelcome, func(p interface{}) { welcome <- p })

	ch := realtime.NewChannel(wsURL(srv), bus, notify.NewCenter(bus))
	require.NoError(t, ch.Connect())
	defer ch.Close()

	assert.Equal(t, realtime.StateConnected, ch.State())

	select {
	case <-welcome:
	case <-time.After(2 * time.Second):
		t.Fatal("welcome frame never reached the bus")
	}
}

func TestOrderEventsDecodeOntoBus(t *testing.T) {
	push := make(chan wireFrame)
	defer close(push)
	srv := echoServer(t, push, nil)
	defer srv.Close()

	bus := event.NewBus()
	orders := make(chan models.Order, 1)
	bus.Subscribe(realtime.EventStatusChange, func(p interface{}) {
		if o, ok := p.(models.Order); ok {
			orders <- o
		}
	})

	ch := realtime.NewChannel(wsURL(srv), bus, nil)
	require.NoError(t, ch.Connect())
	defer ch.Close()

	payload, _ := json.Marshal(models.Order{ID: 9, Status: models.StatusReady})
	push <- wireFrame{Event: realtime.EventStatusChange, Data: payload}

	select {
	case o := <-orders:
		assert.Equal(t, 9, o.ID)
		assert.Equal(t, models.StatusReady, o.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("order event never reached the bus")
	}
}

func TestMalformedFramesAreDropped(t *testing.T) {
	push := make(chan wireFrame)
	defer close(push)
	srv := echoServer(t, push, nil)
	defer srv.Close()

	bus := event.NewBus()
	orders := make(chan models.Order, 2)
	bus.Subscribe(realtime.EventNewOrder, func(p interface{}) {
		if o, ok := p.(models.Order); ok {
			orders <- o
		}
	})

	ch := realtime.NewChannel(wsURL(srv), bus, nil)
	require.NoError(t, ch.Connect())
	defer ch.Close()

	// Undecodable payload first, then a good one: only the good one lands.
	push <- wireFrame{Event: realtime.EventNewOrder, Data: json.RawMessage(`"not an order"`)}
	good, _ := json.Marshal(models.Order{ID: 4, Status: models.StatusPending})
	push <- wireFrame{Event: realtime.EventNewOrder, Data: good}

	select {
	case o := <-orders:
		assert.Equal(t, 4, o.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("good frame never arrived")
	}
	assert.Empty(t, orders)
}

func TestPublishReachesServer(t *testing.T) {
	push := make(chan wireFrame)
	defer close(push)
	received := make(chan wireFrame, 1)
	srv := echoServer(t, push, received)
	defer srv.Close()

	bus := event.NewBus()
	ch := realtime.NewChannel(wsURL(srv), bus, nil)
	require.NoError(t, ch.Connect())
	defer ch.Close()

	order := models.Order{ID: 12, Status: models.StatusCompleted}
	require.NoError(t, ch.Publish(realtime.EventStatusChange, order))

	select {
	case f := <-received:
		assert.Equal(t, realtime.EventStatusChange, f.Event)
		var got models.Order
		require.NoError(t, json.Unmarshal(f.Data, &got))
		assert.Equal(t, 12, got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("published frame never reached the server")
	}
}

func TestPublishWhileDisconnectedErrors(t *testing.T) {
	ch := realtime.NewChannel("ws://127.0.0.1:1/ws", event.NewBus(), nil)
	err := ch.Publish(realtime.EventStatusChange, models.Order{ID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestConnectKeepsRetryingUntilServerAppears(t *testing.T) {
	// Reserve an address, then release it so the initial dial fails.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ch := realtime.NewChannel("ws://"+addr, event.NewBus(), nil)
	require.Error(t, ch.Connect())
	defer ch.Close()
	assert.Equal(t, realtime.StateReconnecting, ch.State())

	// Bring the backend up on the reserved address; the backoff loop should
	// find it without a manual Reconnect.
	ln2, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})}
	go srv.Serve(ln2)
	t.Cleanup(func() { srv.Close() })

	assert.Eventually(t, func() bool {
		return ch.State() == realtime.StateConnected
	}, 10*time.Second, 50*time.Millisecond)
}

func TestReconnectingNoticeReplacesItself(t *testing.T) {
	push := make(chan wireFrame)
	srv := echoServer(t, push, nil)

	bus := event.NewBus()
	notices := notify.NewCenter(bus)
	defer notices.Close()

	ch := realtime.NewChannel(wsURL(srv), bus, notices)
	require.NoError(t, ch.Connect())
	defer ch.Close()

	// Kill the server: the channel flips to reconnecting and keeps exactly
	// one connection notice alive.
	close(push)
	srv.CloseClientConnections()
	srv.Close()

	assert.Eventually(t, func() bool {
		for _, n := range notices.Active() {
			if n.Key == notify.KeyRealtime && n.Level == notify.LevelWarning {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)

	count := 0
	for _, n := range notices.Active() {
		if n.Key == notify.KeyRealtime {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
