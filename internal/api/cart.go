package api

import (
	"context"
	"fmt"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/pkg/httpkit"
)

// CartClient manages the per-table staging carts.
type CartClient struct {
	c *client
}

// Get returns the cart for a table (empty cart when none exists yet).
func (cc *CartClient) Get(ctx context.Context, tableID int) (models.Cart, error) {
	var out models.Cart
	err := cc.c.do(ctx, httpkit.Get(cc.c.url(fmt.Sprintf("/tables/%d/cart", tableID))), "cart", "get", &out)
	if out.TableID == 0 {
		out.TableID = tableID
	}
	return out, err
}

// AddItem stages a line. The backend merges by (item, portion): adding an
// existing pair bumps its quantity instead of creating a second row.
func (cc *CartClient) AddItem(ctx context.Context, tableID int, item models.CartItem) (models.Cart, error) {
	var out models.Cart
	req := httpkit.Post(cc.c.url(fmt.Sprintf("/tables/%d/cart", tableID))).Body(item)
	err := cc.c.do(ctx, req, "cart", "add-item", &out)
	return out, err
}

// UpdateItem changes the quantity of a staged row.
func (cc *CartClient) UpdateItem(ctx context.Context, cartItemID, quantity int) (models.Cart, error) {
	var out models.Cart
	req := httpkit.Put(cc.c.url(fmt.Sprintf("/cart/%d", cartItemID))).
		Body(map[string]int{"quantity": quantity})
	err := cc.c.do(ctx, req, "cart", "update-item", &out)
	return out, err
}

// RemoveItem drops one staged row.
func (cc *CartClient) RemoveItem(ctx context.Context, cartItemID int) error {
	return cc.c.do(ctx, httpkit.Delete(cc.c.url(fmt.Sprintf("/cart/%d", cartItemID))), "cart", "remove-item", nil)
}

// Clear empties a table's cart in bulk.
func (cc *CartClient) Clear(ctx context.Context, tableID int) error {
	return cc.c.do(ctx, httpkit.Delete(cc.c.url(fmt.Sprintf("/tables/%d/cart", tableID))), "cart", "clear", nil)
}

// PlaceOrder turns a non-empty cart into a PENDING order and empties the
// cart server-side.
func (cc *CartClient) PlaceOrder(ctx context.Context, tableID int) (models.Order, error) {
	var out models.Order
	req := httpkit.Post(cc.c.url(fmt.Sprintf("/tables/%d/place-order", tableID)))
	err := cc.c.do(ctx, req, "cart", "place-order", &out)
	return out, err
}
