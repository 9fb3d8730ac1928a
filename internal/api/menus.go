package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/config"
	"github.com/dinesync/dinesync/pkg/cache"
	"github.com/dinesync/dinesync/pkg/httpkit"
)

// MenusClient manages menus and their item/table membership.
type MenusClient struct {
	c *client
}

// MenuInput is the writable subset of a menu.
type MenuInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// List returns all menus.
func (m *MenusClient) List(ctx context.Context) ([]models.Menu, error) {
	var out []models.Menu
	if cache.Get("menus", &out) {
		return out, nil
	}
	if err := m.c.do(ctx, httpkit.Get(m.c.url("/menus")), "menus", "list", &out); err != nil {
		return nil, err
	}
	_ = cache.Set("menus", out, config.CatalogCacheTTL())
	return out, nil
}

// Get returns one menu with its items. This is what the customer menu view
// renders, so the isAcceptingOrders flag rides along.
func (m *MenusClient) Get(ctx context.Context, id int) (models.Menu, error) {
	var out models.Menu
	key := "menus:" + strconv.Itoa(id)
	if cache.Get(key, &out) {
		return out, nil
	}
	if err := m.c.do(ctx, httpkit.Get(m.c.url(fmt.Sprintf("/menus/%d", id))), "menus", "get", &out); err != nil {
		return models.Menu{}, err
	}
	_ = cache.Set(key, out, config.CatalogCacheTTL())
	return out, nil
}

// Create adds a menu.
func (m *MenusClient) Create(ctx context.Context, in MenuInput) (models.Menu, error) {
	var out models.Menu
	req := httpkit.Post(m.c.url("/menus")).Body(in)
	if err := m.c.do(ctx, req, "menus", "create", &out); err != nil {
		return models.Menu{}, err
	}
	m.invalidate(out.ID)
	return out, nil
}

// Update replaces a menu.
func (m *MenusClient) Update(ctx context.Context, id int, in MenuInput) (models.Menu, error) {
	var out models.Menu
	req := httpkit.Put(m.c.url(fmt.Sprintf("/menus/%d", id))).Body(in)
	if err := m.c.do(ctx, req, "menus", "update", &out); err != nil {
		return models.Menu{}, err
	}
	m.invalidate(id)
	return out, nil
}

// Delete removes a menu.
func (m *MenusClient) Delete(ctx context.Context, id int) error {
	if err := m.c.do(ctx, httpkit.Delete(m.c.url(fmt.Sprintf("/menus/%d", id))), "menus", "delete", nil); err != nil {
		return err
	}
	m.invalidate(id)
	return nil
}

// AddItem attaches a catalog item to the menu.
func (m *MenusClient) AddItem(ctx context.Context, menuID, itemID int) error {
	req := httpkit.Post(m.c.url(fmt.Sprintf("/menus/%d/items", menuID))).
		Body(map[string]int{"itemId": itemID})
	if err := m.c.do(ctx, req, "menus", "add-item", nil); err != nil {
		return err
	}
	m.invalidate(menuID)
	return nil
}

// RemoveItem detaches a catalog item from the menu.
func (m *MenusClient) RemoveItem(ctx context.Context, menuID, itemID int) error {
	req := httpkit.Delete(m.c.url(fmt.Sprintf("/menus/%d/items/%d", menuID, itemID)))
	if err := m.c.do(ctx, req, "menus", "remove-item", nil); err != nil {
		return err
	}
	m.invalidate(menuID)
	return nil
}

// ToggleOrders flips whether customers on this menu see order controls.
func (m *MenusClient) ToggleOrders(ctx context.Context, menuID int) (models.Menu, error) {
	var out models.Menu
	req := httpkit.Post(m.c.url(fmt.Sprintf("/menus/%d/toggle-orders", menuID)))
	if err := m.c.do(ctx, req, "menus", "toggle-orders", &out); err != nil {
		return models.Menu{}, err
	}
	m.invalidate(menuID)
	return out, nil
}

func (m *MenusClient) invalidate(id int) {
	keys := []string{"menus"}
	if id != 0 {
		keys = append(keys, "menus:"+strconv.Itoa(id))
	}
	_ = cache.Del(keys...)
}
