package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dinesync/dinesync/app/models"
)

func TestLifecycleTransitions(t *testing.T) {
	legal := []struct{ from, to models.Status }{
		{models.StatusPending, models.StatusPreparing},
		{models.StatusPending, models.StatusCancelled},
		{models.StatusPreparing, models.StatusReady},
		{models.StatusReady, models.StatusDelivered},
		{models.StatusDelivered, models.StatusCompleted},
	}
	for _, tc := range legal {
		assert.True(t, models.CanTransition(tc.from, tc.to), "%s → %s should be legal", tc.from, tc.to)
	}

	illegal := []struct{ from, to models.Status }{
		{models.StatusPending, models.StatusReady},
		{models.StatusPreparing, models.StatusCancelled},
		{models.StatusReady, models.StatusCompleted},
		{models.StatusCompleted, models.StatusPending},
		{models.StatusCancelled, models.StatusPreparing},
		{models.StatusDelivered, models.StatusDelivered},
	}
	for _, tc := range illegal {
		assert.False(t, models.CanTransition(tc.from, tc.to), "%s → %s should be rejected", tc.from, tc.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, models.StatusCompleted.Terminal())
	assert.True(t, models.StatusCancelled.Terminal())
	assert.False(t, models.StatusDelivered.Terminal())
	assert.False(t, models.StatusPending.Terminal())
}

func TestStatusesForRole(t *testing.T) {
	assert.Equal(t, []models.Status{models.StatusPreparing}, models.StatusesFor(models.RoleChef))
	assert.Equal(t, []models.Status{models.StatusDelivered}, models.StatusesFor(models.RolePOSAdmin))
	assert.Contains(t, models.StatusesFor(models.RoleWaiter), models.StatusPending)
	assert.Contains(t, models.StatusesFor(models.RoleWaiter), models.StatusDelivered)
	assert.Nil(t, models.StatusesFor(models.RoleCustomer))

	// Cancelled orders never appear on an active dashboard.
	for _, role := range []models.Role{models.RoleChef, models.RoleWaiter, models.RoleAdmin, models.RolePOSAdmin} {
		assert.NotContains(t, models.StatusesFor(role), models.StatusCancelled)
	}
}

func TestBucketFor(t *testing.T) {
	assert.True(t, models.BucketFor(models.RoleChef, models.StatusPreparing))
	assert.False(t, models.BucketFor(models.RoleChef, models.StatusReady))
	assert.True(t, models.BucketFor(models.RolePOSAdmin, models.StatusDelivered))
	assert.False(t, models.BucketFor(models.RolePOSAdmin, models.StatusCompleted))
	assert.False(t, models.BucketFor(models.RoleCustomer, models.StatusPending))
	assert.False(t, models.BucketFor(models.RoleWaiter, models.StatusCancelled))
}

func TestOrderSubtotalFromLines(t *testing.T) {
	order := models.Order{
		Total: 9999, // stored total is ignored for tax math
		Items: []models.OrderItem{
			{ItemID: 1, Quantity: 2, UnitPrice: 50},
			{ItemID: 2, Quantity: 1, UnitPrice: 100},
		},
	}
	assert.Equal(t, 200.0, order.Subtotal())
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "pos-admin", models.RolePOSAdmin.String())
	assert.Equal(t, "none", models.RoleNone.String())
	assert.Equal(t, "none", models.Role(42).String())
}
