package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/internal/api"
)

// adminRoutes mounts the management CRUD surface. Every handler is a thin
// pass-through to the backend client; the client owns caching, retries and
// cache invalidation.
func (s *Server) adminRoutes(r chi.Router) {
	r.Route("/items", func(r chi.Router) {
		r.Get("/", s.handleItemList)
		r.Post("/", s.handleItemCreate)
		r.Put("/{itemID}", s.handleItemUpdate)
		r.Delete("/{itemID}", s.handleItemDelete)
		r.Patch("/{itemID}/availability", s.handleItemAvailability)
		r.Post("/import", s.handleItemImport)
		r.Get("/template", s.handleItemTemplate)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", s.handleCategoryList)
		r.Post("/", s.handleCategoryCreate)
		r.Put("/{categoryID}", s.handleCategoryUpdate)
		r.Delete("/{categoryID}", s.handleCategoryDelete)
	})

	r.Route("/menus", func(r chi.Router) {
		r.Get("/", s.handleMenuList)
		r.Post("/", s.handleMenuCreate)
		r.Put("/{menuID}", s.handleMenuUpdate)
		r.Delete("/{menuID}", s.handleMenuDelete)
		r.Post("/{menuID}/items/{itemID}", s.handleMenuAddItem)
		r.Delete("/{menuID}/items/{itemID}", s.handleMenuRemoveItem)
		r.Post("/{menuID}/toggle-orders", s.handleMenuToggle)
	})

	r.Route("/tables", func(r chi.Router) {
		r.Get("/", s.handleTableList)
		r.Post("/", s.handleTableCreate)
		r.Put("/{tableID}", s.handleTableUpdate)
		r.Delete("/{tableID}", s.handleTableDelete)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleUserList)
		r.Put("/{userID}/role", s.handleUserAssignRole)
	})
}

// formPayload pulls the "data" JSON part and the optional "image" file out
// of a multipart form, falling back to a plain JSON body when the request
// is not multipart.
func formPayload(r *http.Request, dest interface{}) (*api.Image, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return nil, decodeBody(r, dest)
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return nil, err
	}
	if data := r.FormValue("data"); data != "" {
		if err := json.Unmarshal([]byte(data), dest); err != nil {
			return nil, err
		}
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &api.Image{Filename: header.Filename, Content: content}, nil
}

// ─── Items ───────────────────────────────────────────────────────────────────

func (s *Server) handleItemList(w http.ResponseWriter, r *http.Request) {
	items, err := s.API.Items.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, items)
}

func (s *Server) handleItemCreate(w http.ResponseWriter, r *http.Request) {
	var in api.ItemInput
	image, err := formPayload(r, &in)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	item, err := s.API.Items.Create(r.Context(), in, image)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, item)
}

func (s *Server) handleItemUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlInt(r, "itemID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid item id"})
		return
	}
	var in api.ItemInput
	image, err := formPayload(r, &in)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	item, err := s.API.Items.Update(r.Context(), id, in, image)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, item)
}

func (s *Server) handleItemDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlInt(r, "itemID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid item id"})
		return
	}
	if err := s.API.Items.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleItemAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := urlInt(r, "itemID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid item id"})
		return
	}
	var body struct {
		Available bool `json:"available"`
	}
	if err := decodeBody(r, &body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	if err := s.API.Items.SetAvailability(r.Context(), id, body.Available); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleItemImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "file part required"})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "unreadable file"})
		return
	}
	if err := s.API.Items.ImportExcel(r.Context(), header.Filename, content); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "import accepted"})
}

func (s *Server) handleItemTemplate(w http.ResponseWriter, r *http.Request) {
	content, err := s.API.Items.TemplateDownload(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="items-template.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// ─── Categories ──────────────────────────────────────────────────────────────

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	categories, err := s.API.Categories.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, categories)
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	var in api.CategoryInput
	image, err := formPayload(r, &in)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	category, err := s.API.Categories.Create(r.Context(), in, image)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, category)
}

func (s *Server) handleCategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlInt(r, "categoryID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid category id"})
		return
	}
	var in api.CategoryInput
	image, err := formPayload(r, &in)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	category, err := s.API.Categories.Update(r.Context(), id, in, image)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, category)
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlInt(r, "categoryID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid category id"})
		return
	}
	// Refuses while items still reference the category.
	if err := s.API.Categories.DeleteGuarded(r.Context(), s.API.Items, id); err != nil {
		if api.IsConflict(err) {
			respond(w, http.StatusConflict, map[string]string{"message": "category still has items"})
			return
		}
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

// ─── Menus ───────────────────────────────────────────────────────────────────

func (s *Server) handleMenuList(w http.ResponseWriter, r *http.Request) {
	menus, err := s.API.Menus.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, menus)
}

func (s *Server) handleMenuCreate(w http.ResponseWriter, r *http.Request) {
	var in api.MenuInput
	if err := decodeBody(r, &in); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	menu, err := s.API.Menus.Create(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, menu)
}

func (s *Server) handleMenuUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlInt(r, "menuID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid menu id"})
		return
	}
	var in api.MenuInput
	if err := decodeBody(r, &in); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	menu, err := s.API.Menus.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, menu)
}

func (s *Server) handleMenuDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlInt(r, "menuID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid menu id"})
		return
	}
	if err := s.API.Menus.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleMenuAddItem(w http.ResponseWriter, r *http.Request) {
	menuID, ok1 := urlInt(r, "menuID")
	itemID, ok2 := urlInt(r, "itemID")
	if !ok1 || !ok2 {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return
	}
	if err := s.API.Menus.AddItem(r.Context(), menuID, itemID); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleMenuRemoveItem(w http.ResponseWriter, r *http.Request) {
	menuID, ok1 := urlInt(r, "menuID")
	itemID, ok2 := urlInt(r, "itemID")
	if !ok1 || !ok2 {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return
	}
	if err := s.API.Menus.RemoveItem(r.Context(), menuID, itemID); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleMenuToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := urlInt(r, "menuID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid menu id"})
		return
	}
	menu, err := s.API.Menus.ToggleOrders(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, menu)
}

// ─── Tables ──────────────────────────────────────────────────────────────────

func (s *Server) handleTableList(w http.ResponseWriter, r *http.Request) {
	tables, err := s.API.Tables.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, tables)
}

func (s *Server) handleTableCreate(w http.ResponseWriter, r *http.Request) {
	var in api.TableInput
	image, err := formPayload(r, &in)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	table, err := s.API.Tables.Create(r.Context(), in, image)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, table)
}

func (s *Server) handleTableUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlInt(r, "tableID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid table id"})
		return
	}
	var in api.TableInput
	image, err := formPayload(r, &in)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	table, err := s.API.Tables.Update(r.Context(), id, in, image)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, table)
}

func (s *Server) handleTableDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlInt(r, "tableID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid table id"})
		return
	}
	if err := s.API.Tables.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

// ─── Users ───────────────────────────────────────────────────────────────────

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	users, err := s.API.Users.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, users)
}

func (s *Server) handleUserAssignRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlInt(r, "userID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid user id"})
		return
	}
	var body struct {
		Role models.Role `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	if err := s.API.Users.AssignRole(r.Context(), userID, body.Role); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}
