package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/config"
	"github.com/dinesync/dinesync/pkg/cache"
	"github.com/dinesync/dinesync/pkg/httpkit"
)

// CategoriesClient manages catalog categories.
type CategoriesClient struct {
	c *client
}

// CategoryInput is the writable subset of a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// List returns all categories, served from cache when fresh.
func (cc *CategoriesClient) List(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if cache.Get("categories", &out) {
		return out, nil
	}
	if err := cc.c.do(ctx, httpkit.Get(cc.c.url("/categories")), "categories", "list", &out); err != nil {
		return nil, err
	}
	_ = cache.Set("categories", out, config.CatalogCacheTTL())
	return out, nil
}

// Get returns one category.
func (cc *CategoriesClient) Get(ctx context.Context, id int) (models.Category, error) {
	var out models.Category
	key := "categories:" + strconv.Itoa(id)
	if cache.Get(key, &out) {
		return out, nil
	}
	if err := cc.c.do(ctx, httpkit.Get(cc.c.url(fmt.Sprintf("/categories/%d", id))), "categories", "get", &out); err != nil {
		return models.Category{}, err
	}
	_ = cache.Set(key, out, config.CatalogCacheTTL())
	return out, nil
}

// Create adds a category; image optional (multipart, same as items).
func (cc *CategoriesClient) Create(ctx context.Context, in CategoryInput, image *Image) (models.Category, error) {
	var out models.Category
	req, err := itemRequest(httpkit.Post(cc.c.url("/categories")), in, image)
	if err != nil {
		return models.Category{}, err
	}
	if err := cc.c.do(ctx, req, "categories", "create", &out); err != nil {
		return models.Category{}, err
	}
	cc.invalidate(out.ID)
	return out, nil
}

// Update replaces a category; image optional.
func (cc *CategoriesClient) Update(ctx context.Context, id int, in CategoryInput, image *Image) (models.Category, error) {
	var out models.Category
	req, err := itemRequest(httpkit.Put(cc.c.url(fmt.Sprintf("/categories/%d", id))), in, image)
	if err != nil {
		return models.Category{}, err
	}
	if err := cc.c.do(ctx, req, "categories", "update", &out); err != nil {
		return models.Category{}, err
	}
	cc.invalidate(id)
	return out, nil
}

// Delete removes a category. The backend refuses while items still
// reference it; callers check item counts first, so a 409 here surfaces as
// the same "delete the items first" error either way.
func (cc *CategoriesClient) Delete(ctx context.Context, id int) error {
	if err := cc.c.do(ctx, httpkit.Delete(cc.c.url(fmt.Sprintf("/categories/%d", id))), "categories", "delete", nil); err != nil {
		return err
	}
	cc.invalidate(id)
	return nil
}

// DeleteGuarded refuses the delete client-side while items still reference
// the category.
func (cc *CategoriesClient) DeleteGuarded(ctx context.Context, items *ItemsClient, id int) error {
	remaining, err := items.ByCategory(ctx, id)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		return &Error{
			Resource:  "categories",
			Operation: "delete",
			Status:    http.StatusConflict,
			Message:   fmt.Sprintf("category %d still has %d items; delete them first", id, len(remaining)),
		}
	}
	return cc.Delete(ctx, id)
}

// ImportExcel uploads a bulk category spreadsheet.
func (cc *CategoriesClient) ImportExcel(ctx context.Context, filename string, content []byte) error {
	req := httpkit.Post(cc.c.url("/categories/import-excel")).File("file", filename, content)
	if err := cc.c.do(ctx, req, "categories", "import-excel", nil); err != nil {
		return err
	}
	_ = cache.Flush()
	return nil
}

// TemplateDownload fetches the import spreadsheet template.
func (cc *CategoriesClient) TemplateDownload(ctx context.Context) ([]byte, error) {
	return cc.c.raw(ctx, httpkit.Get(cc.c.url("/categories/excel-template/download")), "categories", "template-download")
}

func (cc *CategoriesClient) invalidate(id int) {
	keys := []string{"categories"}
	if id != 0 {
		keys = append(keys, "categories:"+strconv.Itoa(id), "items:category:"+strconv.Itoa(id))
	}
	_ = cache.Del(keys...)
}
