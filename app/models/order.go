package models

import (
	"time"
)

// Status is the order lifecycle state. The server owns transitions; clients
// validate before issuing one so an impossible request never leaves the app.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusDelivered Status = "DELIVERED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// transitions is the full lifecycle:
//
//	PENDING → PREPARING → READY → DELIVERED → COMPLETED
//	PENDING → CANCELLED
var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady},
	StatusReady:     {StatusDelivered},
	StatusDelivered: {StatusCompleted},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition exists from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether from → to is a legal lifecycle edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Role is the numeric role code persisted alongside the auth token.
type Role int

const (
	RoleNone     Role = 0 // signed up but not yet role-assigned
	RoleAdmin    Role = 1
	RoleChef     Role = 2
	RoleWaiter   Role = 3
	RoleCustomer Role = 4
	RolePOSAdmin Role = 5
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleChef:
		return "chef"
	case RoleWaiter:
		return "waiter"
	case RoleCustomer:
		return "customer"
	case RolePOSAdmin:
		return "pos-admin"
	}
	return "none"
}

// StatusesFor returns the statuses a role's active dashboard displays.
// CANCELLED never belongs to an active view.
func StatusesFor(role Role) []Status {
	switch role {
	case RoleChef:
		return []Status{StatusPreparing}
	case RoleWaiter:
		return []Status{StatusPending, StatusPreparing, StatusReady, StatusDelivered}
	case RolePOSAdmin:
		return []Status{StatusDelivered}
	case RoleAdmin:
		return []Status{StatusPending, StatusPreparing, StatusReady, StatusDelivered}
	}
	return nil
}

// BucketFor reports whether an order in status belongs on role's active
// dashboard. Every view shares this one mapping instead of carrying its own
// predicate.
func BucketFor(role Role, status Status) bool {
	for _, s := range StatusesFor(role) {
		if s == status {
			return true
		}
	}
	return false
}

// PaymentMethod is how a completed order was paid.
type PaymentMethod string

const (
	PayCash PaymentMethod = "cash"
	PayCard PaymentMethod = "card"
)

// Payment holds the POS-completed payment details attached to an order.
type Payment struct {
	Method        PaymentMethod `json:"paymentMethod"`
	AmountPaid    float64       `json:"amountPaid"`
	TaxPercentage float64       `json:"taxPercentage"`
	TaxAmount     float64       `json:"taxAmount"`
	Subtotal      float64       `json:"subtotal"`
	Notes         string        `json:"notes,omitempty"`
}

// OrderItem is one ordered line of an order.
type OrderItem struct {
	ItemID    int     `json:"itemId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Half      bool    `json:"half"`
}

// LineTotal is unit price × quantity for this line.
func (i OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Order is the central entity: a placed set of line items tied to a table,
// tracked through the status lifecycle. Total is server-computed and trusted
// as-is once persisted.
type Order struct {
	ID          int         `json:"id"`
	TableID     int         `json:"tableId"`
	TableNumber int         `json:"tableNumber"`
	Items       []OrderItem `json:"items"`
	Status      Status      `json:"status"`
	Total       float64     `json:"total"`
	Payment     *Payment    `json:"payment,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Subtotal recomputes Σ(line price × quantity) from the order lines. The POS
// tax math always starts from this, never from the stored Total.
func (o Order) Subtotal() float64 {
	var sum float64
	for _, line := range o.Items {
		sum += line.LineTotal()
	}
	return sum
}
