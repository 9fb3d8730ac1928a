package api

import (
	"context"
	"fmt"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/pkg/httpkit"
)

// OrdersClient covers order queries, status transitions, and POS
// completion. Order reads are never cached — the working sets own freshness
// via the realtime channel.
type OrdersClient struct {
	c *client
}

// DashboardOrders is the waiter dashboard's combined active+completed query.
type DashboardOrders struct {
	Active    []models.Order `json:"active"`
	Completed []models.Order `json:"completed"`
}

// PaymentRequest finalizes a delivered order at the POS.
type PaymentRequest struct {
	OrderID       int                  `json:"orderId"`
	Method        models.PaymentMethod `json:"paymentMethod"`
	AmountPaid    float64              `json:"amountPaid"`
	TaxPercentage float64              `json:"taxPercentage"`
	TaxAmount     float64              `json:"taxAmount"`
	Subtotal      float64              `json:"subtotal"`
	Notes         string               `json:"notes,omitempty"`
}

// List returns every order.
func (o *OrdersClient) List(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := o.c.do(ctx, httpkit.Get(o.c.url("/orders")), "orders", "list", &out)
	return out, err
}

// Get returns one order.
func (o *OrdersClient) Get(ctx context.Context, id int) (models.Order, error) {
	var out models.Order
	err := o.c.do(ctx, httpkit.Get(o.c.url(fmt.Sprintf("/orders/%d", id))), "orders", "get", &out)
	return out, err
}

// ByStatus returns the orders currently in one status.
func (o *OrdersClient) ByStatus(ctx context.Context, status models.Status) ([]models.Order, error) {
	var out []models.Order
	err := o.c.do(ctx, httpkit.Get(o.c.url("/orders/status/"+string(status))), "orders", "by-status", &out)
	return out, err
}

// UpdateStatus issues a lifecycle transition and returns the updated order.
// Illegal transitions are refused locally before any network call.
func (o *OrdersClient) UpdateStatus(ctx context.Context, id int, from, to models.Status) (models.Order, error) {
	if !models.CanTransition(from, to) {
		return models.Order{}, &Error{
			Resource:  "orders",
			Operation: "update-status",
			Message:   fmt.Sprintf("illegal transition %s → %s for order %d", from, to, id),
		}
	}

	var out models.Order
	req := httpkit.Patch(o.c.url(fmt.Sprintf("/orders/%d/status", id))).
		Body(map[string]string{"status": string(to)})
	err := o.c.do(ctx, req, "orders", "update-status", &out)
	return out, err
}

// WaiterDashboard returns the combined active+completed sets in one query.
func (o *OrdersClient) WaiterDashboard(ctx context.Context) (DashboardOrders, error) {
	var out DashboardOrders
	err := o.c.do(ctx, httpkit.Get(o.c.url("/waiter/dashboard/orders")), "orders", "waiter-dashboard", &out)
	return out, err
}

// POSDelivered returns the orders awaiting payment.
func (o *OrdersClient) POSDelivered(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := o.c.do(ctx, httpkit.Get(o.c.url("/orders/pos/delivered")), "orders", "pos-delivered", &out)
	return out, err
}

// CompletePOS submits the payment and returns the finalized order. The
// server's returned record, not the locally computed figures, is the receipt
// source of truth. Re-completing a completed order comes back as a 409
// (IsConflict) and must surface as a no-op error, never a retry.
func (o *OrdersClient) CompletePOS(ctx context.Context, payment PaymentRequest) (models.Order, error) {
	var out models.Order
	req := httpkit.Post(o.c.url("/orders/pos/complete")).Body(payment)
	err := o.c.do(ctx, req, "orders", "pos-complete", &out)
	return out, err
}
