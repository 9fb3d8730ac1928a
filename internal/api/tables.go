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

// TablesClient manages restaurant tables and their QR codes.
type TablesClient struct {
	c *client
}

// TableInput is the writable subset of a table.
type TableInput struct {
	Number   int    `json:"number"`
	Location string `json:"location,omitempty"`
	MenuID   int    `json:"menuId"`
}

// List returns all tables.
func (t *TablesClient) List(ctx context.Context) ([]models.Table, error) {
	var out []models.Table
	if cache.Get("tables", &out) {
		return out, nil
	}
	if err := t.c.do(ctx, httpkit.Get(t.c.url("/tables")), "tables", "list", &out); err != nil {
		return nil, err
	}
	_ = cache.Set("tables", out, config.CatalogCacheTTL())
	return out, nil
}

// Get returns one table.
func (t *TablesClient) Get(ctx context.Context, id int) (models.Table, error) {
	var out models.Table
	err := t.c.do(ctx, httpkit.Get(t.c.url(fmt.Sprintf("/tables/%d", id))), "tables", "get", &out)
	return out, err
}

// ByMenu returns the tables serving a menu.
func (t *TablesClient) ByMenu(ctx context.Context, menuID int) ([]models.Table, error) {
	var out []models.Table
	err := t.c.do(ctx, httpkit.Get(t.c.url(fmt.Sprintf("/tables/menu/%d", menuID))), "tables", "by-menu", &out)
	return out, err
}

// Create adds a table; a QR-code image may ride along as multipart.
func (t *TablesClient) Create(ctx context.Context, in TableInput, image *Image) (models.Table, error) {
	var out models.Table
	req, err := itemRequest(httpkit.Post(t.c.url("/tables")), in, image)
	if err != nil {
		return models.Table{}, err
	}
	if err := t.c.do(ctx, req, "tables", "create", &out); err != nil {
		return models.Table{}, err
	}
	t.invalidate(out.ID)
	return out, nil
}

// Update replaces a table; QR-code image optional.
func (t *TablesClient) Update(ctx context.Context, id int, in TableInput, image *Image) (models.Table, error) {
	var out models.Table
	req, err := itemRequest(httpkit.Put(t.c.url(fmt.Sprintf("/tables/%d", id))), in, image)
	if err != nil {
		return models.Table{}, err
	}
	if err := t.c.do(ctx, req, "tables", "update", &out); err != nil {
		return models.Table{}, err
	}
	t.invalidate(id)
	return out, nil
}

// Delete removes a table.
func (t *TablesClient) Delete(ctx context.Context, id int) error {
	if err := t.c.do(ctx, httpkit.Delete(t.c.url(fmt.Sprintf("/tables/%d", id))), "tables", "delete", nil); err != nil {
		return err
	}
	t.invalidate(id)
	return nil
}

func (t *TablesClient) invalidate(id int) {
	keys := []string{"tables"}
	if id != 0 {
		keys = append(keys, "tables:"+strconv.Itoa(id))
	}
	_ = cache.Del(keys...)
}
