package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dinesync/dinesync/app/models"
)

func TestCartAddMergesSameItemAndPortion(t *testing.T) {
	var cart models.Cart
	cart.Add(models.CartItem{ItemID: 7, Quantity: 1, UnitPrice: 50})
	cart.Add(models.CartItem{ItemID: 7, Quantity: 2, UnitPrice: 50})

	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestCartHalfAndFullAreDistinctRows(t *testing.T) {
	var cart models.Cart
	cart.Add(models.CartItem{ItemID: 7, Quantity: 1, UnitPrice: 120})
	cart.Add(models.CartItem{ItemID: 7, Half: true, Quantity: 1, UnitPrice: 70})

	assert.Len(t, cart.Items, 2)
}

func TestCartRemoveAndClear(t *testing.T) {
	var cart models.Cart
	cart.Add(models.CartItem{ItemID: 1, Quantity: 1, UnitPrice: 10})
	cart.Add(models.CartItem{ItemID: 2, Quantity: 1, UnitPrice: 20})

	cart.Remove(1, false)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].ItemID)

	// Removing a missing row is a no-op.
	cart.Remove(99, true)
	assert.Len(t, cart.Items, 1)

	cart.Clear()
	assert.True(t, cart.Empty())
}

func TestCartTotal(t *testing.T) {
	var cart models.Cart
	cart.Add(models.CartItem{ItemID: 1, Quantity: 2, UnitPrice: 50})
	cart.Add(models.CartItem{ItemID: 2, Quantity: 1, UnitPrice: 100})
	assert.Equal(t, 200.0, cart.Total())
}
