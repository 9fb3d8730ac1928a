// Package pos implements the point-of-sale payment flow: tax math over the
// order lines, settlement against the backend, receipt and kitchen ticket
// rendering, and archival of the printed artifacts.
package pos

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/internal/api"
	"github.com/dinesync/dinesync/internal/realtime"
	"github.com/dinesync/dinesync/pkg/event"
	"github.com/dinesync/dinesync/pkg/logger"
	"github.com/dinesync/dinesync/pkg/storage"
)

// DefaultTaxPercentage applies when the operator does not override it.
const DefaultTaxPercentage = 5.0

// Checkout is the editable payment form for one delivered order. Amounts are
// always derived from the order lines at full precision; rounding happens
// only at display time.
type Checkout struct {
	Order         models.Order
	Method        models.PaymentMethod
	TaxPercentage float64
	Notes         string
}

// NewCheckout opens a checkout for order with the defaults an operator
// usually keeps: cash, standard tax.
func NewCheckout(order models.Order) *Checkout {
	return &Checkout{
		Order:         order,
		Method:        models.PayCash,
		TaxPercentage: DefaultTaxPercentage,
	}
}

// Subtotal is Σ(line price × quantity) over the order lines. The stored
// order total is never used here.
func (c *Checkout) Subtotal() float64 {
	return c.Order.Subtotal()
}

// Tax is subtotal × percentage / 100, unrounded.
func (c *Checkout) Tax() float64 {
	return c.Subtotal() * c.TaxPercentage / 100
}

// Total is subtotal plus tax, unrounded.
func (c *Checkout) Total() float64 {
	return c.Subtotal() + c.Tax()
}

// round2 rounds to two decimals for display and for the amounts sent to the
// backend, so ₹200 at 5% settles as exactly 210.00.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PaymentRequest materializes the checkout into the settlement payload.
func (c *Checkout) PaymentRequest() api.PaymentRequest {
	return api.PaymentRequest{
		OrderID:       c.Order.ID,
		Method:        c.Method,
		AmountPaid:    round2(c.Total()),
		TaxPercentage: c.TaxPercentage,
		TaxAmount:     round2(c.Tax()),
		Subtotal:      round2(c.Subtotal()),
		Notes:         c.Notes,
	}
}

// Terminal settles checkouts: it completes the order on the backend,
// broadcasts the change, and archives the printed receipt and kitchen
// ticket. The awaiting-payment working set it serves removes the order on
// the status-change event like any other view.
type Terminal struct {
	orders  *api.OrdersClient
	channel *realtime.Channel
	bus     *event.Bus
	nowFunc func() time.Time
}

// NewTerminal wires a terminal. channel may be nil when realtime is down;
// settlement still works, only the broadcast is skipped.
func NewTerminal(orders *api.OrdersClient, channel *realtime.Channel, bus *event.Bus) *Terminal {
	return &Terminal{orders: orders, channel: channel, bus: bus, nowFunc: time.Now}
}

// Settlement is the outcome of a completed payment.
type Settlement struct {
	Order   models.Order
	Receipt string
	KOT     string
}

// Complete settles the checkout. The server response is the truth for the
// receipt: whatever totals it persisted are what gets printed. When another
// terminal already completed the order the backend answers 409 and the
// settlement is a no-op error the caller surfaces without retry.
//
// Archival failure never rolls back a charged payment; it is logged and the
// settlement still succeeds.
func (t *Terminal) Complete(ctx context.Context, c *Checkout) (Settlement, error) {
	settled, err := t.orders.CompletePOS(ctx, c.PaymentRequest())
	if err != nil {
		if api.IsConflict(err) {
			return Settlement{}, fmt.Errorf("pos: order #%d already completed: %w", c.Order.ID, err)
		}
		return Settlement{}, err
	}

	t.broadcast(settled)

	s := Settlement{
		Order:   settled,
		Receipt: RenderReceipt(settled, t.nowFunc()),
		KOT:     RenderKOT(settled, t.nowFunc()),
	}
	t.archive(settled, s)
	return s, nil
}

// broadcast pushes the status change to peers and to the local bus so every
// mounted view reconciles immediately instead of waiting for the echo.
func (t *Terminal) broadcast(order models.Order) {
	if t.channel != nil {
		if err := t.channel.Publish(realtime.EventStatusChange, order); err != nil {
			logger.Warn("pos: broadcast skipped", "order", order.ID, "error", err)
		}
	}
	if t.bus != nil {
		t.bus.Fire(realtime.EventStatusChange, order)
	}
}

func (t *Terminal) archive(order models.Order, s Settlement) {
	day := t.nowFunc().Format("2006-01-02")
	receiptPath := fmt.Sprintf("receipts/%s/order-%d.txt", day, order.ID)
	kotPath := fmt.Sprintf("kot/%s/order-%d.txt", day, order.ID)

	if err := storage.Put(receiptPath, []byte(s.Receipt)); err != nil {
		logger.Error("pos: receipt archive failed", "order", order.ID, "path", receiptPath, "error", err)
	}
	if err := storage.Put(kotPath, []byte(s.KOT)); err != nil {
		logger.Error("pos: kot archive failed", "order", order.ID, "path", kotPath, "error", err)
	}
}

// ─── Printing ────────────────────────────────────────────────────────────────

const printWidth = 40

func centered(s string) string {
	if len(s) >= printWidth {
		return s
	}
	pad := (printWidth - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func rule() string { return strings.Repeat("-", printWidth) }

func lineItem(name string, qty int, amount float64) string {
	left := fmt.Sprintf("%d x %s", qty, name)
	right := models.FormatPrice(amount)
	gap := printWidth - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func totalLine(label string, amount float64) string {
	right := models.FormatPrice(amount)
	gap := printWidth - len(label) - len(right)
	if gap < 1 {
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + right
}

// RenderReceipt produces the customer receipt from the settled order. All
// amounts come from the persisted payment record.
func RenderReceipt(order models.Order, at time.Time) string {
	var b strings.Builder
	b.WriteString(centered("DINESYNC") + "\n")
	b.WriteString(centered("PAYMENT RECEIPT") + "\n")
	b.WriteString(rule() + "\n")
	fmt.Fprintf(&b, "Order #%d    Table %d\n", order.ID, order.TableNumber)
	fmt.Fprintf(&b, "%s\n", at.Format("02 Jan 2006 15:04"))
	b.WriteString(rule() + "\n")
	for _, it := range order.Items {
		name := it.Name
		if it.Half {
			name += " (half)"
		}
		b.WriteString(lineItem(name, it.Quantity, it.LineTotal()) + "\n")
	}
	b.WriteString(rule() + "\n")
	if p := order.Payment; p != nil {
		b.WriteString(totalLine("Subtotal", p.Subtotal) + "\n")
		b.WriteString(totalLine(fmt.Sprintf("Tax (%.1f%%)", p.TaxPercentage), p.TaxAmount) + "\n")
		b.WriteString(totalLine("TOTAL", p.AmountPaid) + "\n")
		fmt.Fprintf(&b, "Paid by %s\n", p.Method)
		if p.Notes != "" {
			fmt.Fprintf(&b, "Note: %s\n", p.Notes)
		}
	} else {
		b.WriteString(totalLine("TOTAL", order.Total) + "\n")
	}
	b.WriteString(rule() + "\n")
	b.WriteString(centered("Thank you, visit again!") + "\n")
	return b.String()
}

// RenderKOT produces the kitchen order ticket: lines and quantities only,
// no amounts.
func RenderKOT(order models.Order, at time.Time) string {
	var b strings.Builder
	b.WriteString(centered("KITCHEN ORDER TICKET") + "\n")
	b.WriteString(rule() + "\n")
	fmt.Fprintf(&b, "Order #%d    Table %d\n", order.ID, order.TableNumber)
	fmt.Fprintf(&b, "%s\n", at.Format("15:04"))
	b.WriteString(rule() + "\n")
	for _, it := range order.Items {
		name := it.Name
		if it.Half {
			name += " (half)"
		}
		fmt.Fprintf(&b, "%2d x %s\n", it.Quantity, name)
	}
	b.WriteString(rule() + "\n")
	return b.String()
}
