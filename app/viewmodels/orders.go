// Package viewmodels reconciles REST-fetched order snapshots with realtime
// events into the per-role working sets the dashboards render.
//
// Every mounted view owns one WorkingSet: it fetches its snapshot, subscribes
// to the bus, and applies each incoming order with the same three rules —
// insert when newly relevant, replace when still relevant, remove when the
// order moved to another role's bucket. Duplicate delivery is harmless
// because replacement is keyed by order ID, never appended.
package viewmodels

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/internal/realtime"
	"github.com/dinesync/dinesync/pkg/event"
	"github.com/dinesync/dinesync/pkg/metrics"
)

// View describes which orders one screen displays. Role views delegate
// membership to the shared models.BucketFor mapping; custom views list
// their statuses explicitly.
type View struct {
	Name     string
	Role     models.Role     // role bucket, used when Statuses is nil
	Statuses []models.Status // explicit membership for non-role views

	// TerminalMix marks views that blend live and finished orders (the POS
	// day view); they sort by status first, creation time as tiebreak.
	TerminalMix bool
}

// Contains reports whether an order in status belongs to this view.
func (v View) Contains(status models.Status) bool {
	if v.Statuses == nil {
		return models.BucketFor(v.Role, status)
	}
	for _, s := range v.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Canned views. CANCELLED appears in none of them.
var (
	ChefView = View{Name: "chef", Role: models.RoleChef}

	WaiterView = View{Name: "waiter", Role: models.RoleWaiter}

	POSAwaitingView = View{Name: "pos-awaiting", Role: models.RolePOSAdmin}

	POSDayView = View{
		Name:        "pos-day",
		Statuses:    []models.Status{models.StatusDelivered, models.StatusCompleted},
		TerminalMix: true,
	}
)

// FetchFunc loads the initial snapshot for a view.
type FetchFunc func(ctx context.Context) ([]models.Order, error)

// WorkingSet is the reconciled, role-scoped in-memory order collection one
// mounted view displays. Not shared across views — each fetches and
// subscribes independently.
type WorkingSet struct {
	view  View
	fetch FetchFunc
	bus   *event.Bus

	mu         sync.Mutex
	orders     []models.Order
	selectedID int
	loaded     bool
	lastErr    error
	closed     bool

	subs    event.Group
	nowFunc func() time.Time
}

// NewWorkingSet builds the working set for view. Call Load for the snapshot
// and Start to subscribe; Close on unmount.
func NewWorkingSet(view View, fetch FetchFunc, bus *event.Bus) *WorkingSet {
	return &WorkingSet{view: view, fetch: fetch, bus: bus, nowFunc: time.Now}
}

// Load fetches the initial snapshot. A failure leaves the set in a
// retryable error state (see Err and Retry) without clearing anything
// already held.
func (w *WorkingSet) Load(ctx context.Context) error {
	orders, err := w.fetch(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		// Result arriving after unmount is discarded, not applied.
		return nil
	}
	if err != nil {
		w.lastErr = err
		return err
	}

	w.lastErr = nil
	w.loaded = true
	w.orders = w.orders[:0]
	for _, o := range orders {
		if w.view.Contains(o.Status) {
			w.orders = append(w.orders, o)
		}
	}
	w.sortLocked()
	w.ensureSelectionLocked()
	w.gaugeLocked()
	return nil
}

// Retry re-runs the snapshot fetch after a failed Load.
func (w *WorkingSet) Retry(ctx context.Context) error { return w.Load(ctx) }

// Err returns the last snapshot failure, nil once a Load has succeeded.
func (w *WorkingSet) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Loaded reports whether a snapshot has ever been applied.
func (w *WorkingSet) Loaded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loaded
}

// Start subscribes to the order lifecycle events. The same reconciliation
// applies to all of them; a "preparing" event in particular inserts an order
// the snapshot never saw, which is how a chef who mounted before the
// confirmation still gets it.
func (w *WorkingSet) Start() {
	w.subs.Add(
		w.bus.Subscribe(realtime.EventStatusChange, w.onOrderEvent),
		w.bus.Subscribe(realtime.EventStatusPreparing, w.onOrderEvent),
		w.bus.Subscribe(realtime.EventNewOrder, w.onOrderEvent),
		w.bus.Subscribe(realtime.EventPaymentProcessing, w.onOrderEvent),
	)
}

func (w *WorkingSet) onOrderEvent(payload interface{}) {
	order, ok := payload.(models.Order)
	if !ok {
		return
	}
	w.Apply(order)
}

// Apply reconciles one updated order into the set:
//
//  1. absent + belongs here  → insert (newly relevant)
//  2. present + belongs here → replace the stored record
//  3. present + moved away   → remove, selection falls back
//  4. absent + not ours      → silently ignore
func (w *WorkingSet) Apply(order models.Order) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	idx := w.indexLocked(order.ID)
	belongs := w.view.Contains(order.Status)

	switch {
	case idx < 0 && belongs:
		w.orders = append(w.orders, order)
	case idx >= 0 && belongs:
		w.orders[idx] = order
	case idx >= 0 && !belongs:
		w.orders = append(w.orders[:idx], w.orders[idx+1:]...)
		if w.selectedID == order.ID {
			w.selectedID = 0
			w.ensureSelectionLocked()
		}
	default:
		return // not resolvable to this view's concern
	}

	w.sortLocked()
	w.gaugeLocked()
}

// Orders returns a copy of the current working set, display order.
func (w *WorkingSet) Orders() []models.Order {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.Order, len(w.orders))
	copy(out, w.orders)
	return out
}

// Len returns the current size.
func (w *WorkingSet) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.orders)
}

// Recent filters to orders created within window of now. A pure derived
// view over the same set — no second fetch, no second subscription.
func (w *WorkingSet) Recent(window time.Duration) []models.Order {
	cutoff := w.nowFunc().Add(-window)

	w.mu.Lock()
	defer w.mu.Unlock()
	var out []models.Order
	for _, o := range w.orders {
		if o.CreatedAt.After(cutoff) {
			out = append(out, o)
		}
	}
	return out
}

// Select opens an order for detail/payment. Returns false when the id is
// not in the set.
func (w *WorkingSet) Select(id int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.indexLocked(id) < 0 {
		return false
	}
	w.selectedID = id
	return true
}

// Selected returns the open order, if any. When a removal took the selected
// order away the selection has already fallen back to the first remaining
// order, or to none.
func (w *WorkingSet) Selected() (models.Order, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := w.indexLocked(w.selectedID)
	if idx < 0 {
		return models.Order{}, false
	}
	return w.orders[idx], true
}

// Close detaches all subscriptions. Idempotent; events and late fetch
// results arriving afterwards are discarded.
func (w *WorkingSet) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.subs.CancelAll()
	metrics.WorkingSetSize.WithLabelValues(w.view.Name).Set(0)
}

// ─── Internals (callers hold w.mu) ────────────────────────────────────────────

func (w *WorkingSet) indexLocked(id int) int {
	if id == 0 {
		return -1
	}
	for i := range w.orders {
		if w.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// statusRank orders a terminal mix: live orders ahead of finished ones.
var statusRank = map[models.Status]int{
	models.StatusPending:   0,
	models.StatusPreparing: 1,
	models.StatusReady:     2,
	models.StatusDelivered: 3,
	models.StatusCompleted: 4,
	models.StatusCancelled: 5,
}

func (w *WorkingSet) sortLocked() {
	if w.view.TerminalMix {
		sort.SliceStable(w.orders, func(i, j int) bool {
			ri, rj := statusRank[w.orders[i].Status], statusRank[w.orders[j].Status]
			if ri != rj {
				return ri < rj
			}
			return w.orders[i].CreatedAt.After(w.orders[j].CreatedAt)
		})
		return
	}
	// Default: newest first.
	sort.SliceStable(w.orders, func(i, j int) bool {
		return w.orders[i].CreatedAt.After(w.orders[j].CreatedAt)
	})
}

func (w *WorkingSet) ensureSelectionLocked() {
	if w.indexLocked(w.selectedID) >= 0 {
		return
	}
	if len(w.orders) > 0 {
		w.selectedID = w.orders[0].ID
	} else {
		w.selectedID = 0
	}
}

func (w *WorkingSet) gaugeLocked() {
	metrics.WorkingSetSize.WithLabelValues(w.view.Name).Set(float64(len(w.orders)))
}
