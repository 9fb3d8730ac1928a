package models

import (
	"fmt"
	"math"
)

// MenuItem is a catalog entry. Older backend records carry only the legacy
// Price field; FullPrice/HalfPrice took over later, which is why price
// resolution goes through ItemPrice instead of reading fields directly.
type MenuItem struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	FullPrice       *float64 `json:"fullPrice,omitempty"`
	HalfPrice       *float64 `json:"halfPrice,omitempty"`
	Price           *float64 `json:"price,omitempty"` // legacy single price
	PreparationTime int      `json:"preparationTime,omitempty"`
	Available       bool     `json:"available"`
	CategoryID      int      `json:"categoryId"`
	Subcategory     string   `json:"subcategory,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	ImageURL        string   `json:"imageUrl,omitempty"`
}

// ItemPrice resolves the price for an item. A half portion uses HalfPrice
// when present; otherwise the full price applies, which itself falls back to
// the legacy Price field. Returns 0 when no usable price exists.
func ItemPrice(item MenuItem, half bool) float64 {
	if half && usable(item.HalfPrice) {
		return *item.HalfPrice
	}
	if usable(item.FullPrice) {
		return *item.FullPrice
	}
	if usable(item.Price) {
		return *item.Price
	}
	return 0
}

func usable(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0)
}

// FormatPrice renders an amount as a display currency string. Non-finite
// amounts render as the zero-currency string rather than garbage.
func FormatPrice(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	return fmt.Sprintf("₹%.2f", amount)
}

// Category groups menu items. Deleting one is blocked while items still
// reference it.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Table is a physical restaurant table with its QR code and the single menu
// it currently serves. Numbers are unique per restaurant.
type Table struct {
	ID       int    `json:"id"`
	Number   int    `json:"number"`
	QRCode   string `json:"qrCode,omitempty"`
	Location string `json:"location,omitempty"`
	MenuID   int    `json:"menuId"`
}

// Menu owns items and tables. When IsAcceptingOrders is off, customers can
// browse but see no order controls at all.
type Menu struct {
	ID                int        `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	IsAcceptingOrders bool       `json:"isAcceptingOrders"`
	Items             []MenuItem `json:"items,omitempty"`
	Tables            []Table    `json:"tables,omitempty"`
}
