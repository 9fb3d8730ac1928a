package models

// CartItem is one staged line in a table's cart. Its identity within the
// cart is the (item, portion) pair, never the row ID.
type CartItem struct {
	ID        int     `json:"id,omitempty"`
	ItemID    int     `json:"itemId"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	Half      bool    `json:"half"`
	UnitPrice float64 `json:"unitPrice"`
}

// Cart is the ephemeral per-table staging list awaiting checkout.
// Carts are never shared across tables.
type Cart struct {
	TableID int        `json:"tableId"`
	Items   []CartItem `json:"items"`
}

// Add merges an item into the cart. Adding an (item, portion) pair that is
// already present increments the existing row's quantity instead of
// duplicating it.
func (c *Cart) Add(item CartItem) {
	for i := range c.Items {
		if c.Items[i].ItemID == item.ItemID && c.Items[i].Half == item.Half {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// Remove drops the (item, portion) row, if present.
func (c *Cart) Remove(itemID int, half bool) {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID && c.Items[i].Half == half {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}

// Total is Σ(unit price × quantity) over the staged rows.
func (c *Cart) Total() float64 {
	var sum float64
	for _, item := range c.Items {
		sum += item.UnitPrice * float64(item.Quantity)
	}
	return sum
}

// Empty reports whether the cart holds no rows.
func (c *Cart) Empty() bool { return len(c.Items) == 0 }
