package pos_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/app/pos"
	"github.com/dinesync/dinesync/internal/api"
	"github.com/dinesync/dinesync/internal/realtime"
	"github.com/dinesync/dinesync/pkg/event"
	"github.com/dinesync/dinesync/pkg/storage"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "dinesync-pos-test")
	if err != nil {
		panic(err)
	}
	os.Setenv("STORAGE_LOCAL_ROOT", dir)
	storage.Connect()

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func deliveredOrder() models.Order {
	return models.Order{
		ID:          42,
		TableNumber: 7,
		Status:      models.StatusDelivered,
		Total:       123456, // stored total must never enter the tax math
		Items: []models.OrderItem{
			{ItemID: 1, Name: "Paneer Tikka", Quantity: 1, UnitPrice: 150},
			{ItemID: 2, Name: "Butter Naan", Quantity: 2, UnitPrice: 25},
		},
		CreatedAt: time.Now(),
	}
}

func TestCheckoutMath(t *testing.T) {
	c := pos.NewCheckout(deliveredOrder())

	assert.Equal(t, 200.0, c.Subtotal())
	assert.Equal(t, 10.0, c.Tax())
	assert.Equal(t, 210.0, c.Total())
	assert.Equal(t, models.PayCash, c.Method)
	assert.Equal(t, pos.DefaultTaxPercentage, c.TaxPercentage)
}

func TestCheckoutTaxOverride(t *testing.T) {
	c := pos.NewCheckout(deliveredOrder())
	c.TaxPercentage = 18

	assert.Equal(t, 36.0, c.Tax())
	assert.Equal(t, 236.0, c.Total())
}

func TestPaymentRequestRoundsToTwoDecimals(t *testing.T) {
	order := deliveredOrder()
	order.Items = []models.OrderItem{{ItemID: 1, Name: "Chai", Quantity: 3, UnitPrice: 33.33}}
	c := pos.NewCheckout(order)

	req := c.PaymentRequest()
	assert.Equal(t, 42, req.OrderID)
	assert.Equal(t, 99.99, req.Subtotal)
	assert.Equal(t, 5.0, req.TaxAmount) // 4.9995 rounds up
	assert.Equal(t, 104.99, req.AmountPaid)
}

func TestRenderReceiptUsesPersistedPayment(t *testing.T) {
	order := deliveredOrder()
	order.Status = models.StatusCompleted
	order.Payment = &models.Payment{
		Method:        models.PayCard,
		Subtotal:      200,
		TaxPercentage: 5,
		TaxAmount:     10,
		AmountPaid:    210,
		Notes:         "window seat",
	}

	receipt := pos.RenderReceipt(order, time.Date(2026, 8, 30, 13, 45, 0, 0, time.UTC))

	assert.Contains(t, receipt, "Order #42")
	assert.Contains(t, receipt, "Table 7")
	assert.Contains(t, receipt, "Paneer Tikka")
	assert.Contains(t, receipt, "2 x Butter Naan")
	assert.Contains(t, receipt, "₹210.00")
	assert.Contains(t, receipt, "Tax (5.0%)")
	assert.Contains(t, receipt, "Paid by card")
	assert.Contains(t, receipt, "window seat")
}

func TestRenderKOTHasNoAmounts(t *testing.T) {
	kot := pos.RenderKOT(deliveredOrder(), time.Now())

	assert.Contains(t, kot, "Order #42")
	assert.Contains(t, kot, "Paneer Tikka")
	assert.NotContains(t, kot, "₹")
}

func TestTerminalComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/pos/complete", r.URL.Path)

		var req api.PaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 210.0, req.AmountPaid)

		settled := deliveredOrder()
		settled.Status = models.StatusCompleted
		settled.Payment = &models.Payment{
			Method:        req.Method,
			Subtotal:      req.Subtotal,
			TaxPercentage: req.TaxPercentage,
			TaxAmount:     req.TaxAmount,
			AmountPaid:    req.AmountPaid,
		}
		json.NewEncoder(w).Encode(settled)
	}))
	defer srv.Close()

	a := api.New(srv.URL, func() string { return "tok" })
	bus := event.NewBus()

	var broadcast []models.Order
	bus.Subscribe(realtime.EventStatusChange, func(payload interface{}) {
		if o, ok := payload.(models.Order); ok {
			broadcast = append(broadcast, o)
		}
	})

	term := pos.NewTerminal(a.Orders, nil, bus)
	settlement, err := term.Complete(context.Background(), pos.NewCheckout(deliveredOrder()))
	require.NoError(t, err)

	// The server record drives the receipt.
	assert.Equal(t, models.StatusCompleted, settlement.Order.Status)
	assert.Contains(t, settlement.Receipt, "₹210.00")
	assert.NotEmpty(t, settlement.KOT)

	// Peers learn about the completion immediately.
	require.Len(t, broadcast, 1)
	assert.Equal(t, models.StatusCompleted, broadcast[0].Status)

	// The printed artifacts were archived.
	day := time.Now().Format("2006-01-02")
	assert.True(t, storage.Exists("receipts/"+day+"/order-42.txt"))
	assert.True(t, storage.Exists("kot/"+day+"/order-42.txt"))
}

func TestTerminalCompleteConflictIsNoOp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "order already completed"})
	}))
	defer srv.Close()

	a := api.New(srv.URL, func() string { return "tok" })
	bus := event.NewBus()

	fired := false
	bus.Subscribe(realtime.EventStatusChange, func(interface{}) { fired = true })

	term := pos.NewTerminal(a.Orders, nil, bus)
	_, err := term.Complete(context.Background(), pos.NewCheckout(deliveredOrder()))

	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
	assert.False(t, fired, "a conflict must not broadcast anything")
}
