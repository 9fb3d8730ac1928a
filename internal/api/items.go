package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/config"
	"github.com/dinesync/dinesync/pkg/cache"
	"github.com/dinesync/dinesync/pkg/httpkit"
)

// ItemsClient manages the menu-item catalog.
type ItemsClient struct {
	c *client
}

// ItemInput is the writable subset of a menu item. Image bytes, when
// present, switch the request to multipart (the one upload encoding used
// platform-wide).
type ItemInput struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	FullPrice       *float64 `json:"fullPrice,omitempty"`
	HalfPrice       *float64 `json:"halfPrice,omitempty"`
	PreparationTime int      `json:"preparationTime,omitempty"`
	Available       bool     `json:"available"`
	CategoryID      int      `json:"categoryId"`
	Subcategory     string   `json:"subcategory,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// Image is an optional upload attached to a create/update.
type Image struct {
	Filename string
	Content  []byte
}

// List returns the full catalog, served from cache when fresh.
func (i *ItemsClient) List(ctx context.Context) ([]models.MenuItem, error) {
	var out []models.MenuItem
	if cache.Get("items", &out) {
		return out, nil
	}
	if err := i.c.do(ctx, httpkit.Get(i.c.url("/items")), "items", "list", &out); err != nil {
		return nil, err
	}
	_ = cache.Set("items", out, config.CatalogCacheTTL())
	return out, nil
}

// Get returns one item.
func (i *ItemsClient) Get(ctx context.Context, id int) (models.MenuItem, error) {
	var out models.MenuItem
	key := "items:" + strconv.Itoa(id)
	if cache.Get(key, &out) {
		return out, nil
	}
	if err := i.c.do(ctx, httpkit.Get(i.c.url(fmt.Sprintf("/items/%d", id))), "items", "get", &out); err != nil {
		return models.MenuItem{}, err
	}
	_ = cache.Set(key, out, config.CatalogCacheTTL())
	return out, nil
}

// ByCategory returns the items of one category.
func (i *ItemsClient) ByCategory(ctx context.Context, categoryID int) ([]models.MenuItem, error) {
	var out []models.MenuItem
	key := "items:category:" + strconv.Itoa(categoryID)
	if cache.Get(key, &out) {
		return out, nil
	}
	err := i.c.do(ctx, httpkit.Get(i.c.url(fmt.Sprintf("/items/category/%d", categoryID))), "items", "by-category", &out)
	if err != nil {
		return nil, err
	}
	_ = cache.Set(key, out, config.CatalogCacheTTL())
	return out, nil
}

// Create adds a catalog item; image optional.
func (i *ItemsClient) Create(ctx context.Context, in ItemInput, image *Image) (models.MenuItem, error) {
	var out models.MenuItem
	req, err := itemRequest(httpkit.Post(i.c.url("/items")), in, image)
	if err != nil {
		return models.MenuItem{}, err
	}
	if err := i.c.do(ctx, req, "items", "create", &out); err != nil {
		return models.MenuItem{}, err
	}
	i.invalidate(out.ID, out.CategoryID)
	return out, nil
}

// Update replaces a catalog item; image optional.
func (i *ItemsClient) Update(ctx context.Context, id int, in ItemInput, image *Image) (models.MenuItem, error) {
	var out models.MenuItem
	req, err := itemRequest(httpkit.Put(i.c.url(fmt.Sprintf("/items/%d", id))), in, image)
	if err != nil {
		return models.MenuItem{}, err
	}
	if err := i.c.do(ctx, req, "items", "update", &out); err != nil {
		return models.MenuItem{}, err
	}
	i.invalidate(id, out.CategoryID)
	return out, nil
}

// Delete removes a catalog item.
func (i *ItemsClient) Delete(ctx context.Context, id int) error {
	if err := i.c.do(ctx, httpkit.Delete(i.c.url(fmt.Sprintf("/items/%d", id))), "items", "delete", nil); err != nil {
		return err
	}
	i.invalidate(id, 0)
	return nil
}

// SetAvailability flips the availability flag without a full edit — the
// chef's quick toggle.
func (i *ItemsClient) SetAvailability(ctx context.Context, id int, available bool) error {
	req := httpkit.Patch(i.c.url(fmt.Sprintf("/items/%d/availability", id))).
		Body(map[string]bool{"available": available})
	if err := i.c.do(ctx, req, "items", "set-availability", nil); err != nil {
		return err
	}
	i.invalidate(id, 0)
	return nil
}

// ImportExcel uploads a bulk item spreadsheet.
func (i *ItemsClient) ImportExcel(ctx context.Context, filename string, content []byte) error {
	req := httpkit.Post(i.c.url("/items/import-excel")).File("file", filename, content)
	if err := i.c.do(ctx, req, "items", "import-excel", nil); err != nil {
		return err
	}
	_ = cache.Flush()
	return nil
}

// TemplateDownload fetches the import spreadsheet template.
func (i *ItemsClient) TemplateDownload(ctx context.Context) ([]byte, error) {
	return i.c.raw(ctx, httpkit.Get(i.c.url("/items/excel-template/download")), "items", "template-download")
}

func (i *ItemsClient) invalidate(id, categoryID int) {
	keys := []string{"items"}
	if id != 0 {
		keys = append(keys, "items:"+strconv.Itoa(id))
	}
	if categoryID != 0 {
		keys = append(keys, "items:category:"+strconv.Itoa(categoryID))
	}
	_ = cache.Del(keys...)
}

// itemRequest encodes in as JSON or, when an image rides along, as
// multipart with the JSON payload in a "data" field.
func itemRequest(req *httpkit.Request, in interface{}, image *Image) (*httpkit.Request, error) {
	if image == nil {
		return req.Body(in), nil
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("api: marshal input: %w", err)
	}
	return req.Field("data", string(payload)).
		File("image", image.Filename, image.Content), nil
}
