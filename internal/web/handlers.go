package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/app/pos"
	"github.com/dinesync/dinesync/internal/api"
	"github.com/dinesync/dinesync/internal/realtime"
	"github.com/dinesync/dinesync/pkg/logger"
)

// ─── Helpers ─────────────────────────────────────────────────────────────────

func respond(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("web: encode response", "error", err)
		}
	}
}

func respondError(w http.ResponseWriter, err error) {
	var apiErr *api.Error
	status := http.StatusBadGateway
	message := "upstream request failed"
	if errors.As(err, &apiErr) {
		if apiErr.Status > 0 {
			status = apiErr.Status
		}
		message = apiErr.Message
	}
	respond(w, status, map[string]string{"message": message})
}

func urlInt(r *http.Request, key string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, key))
	return n, err == nil
}

func decodeBody(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}

// ─── Health & session ────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"realtime": string(s.Channel.State()),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	res, err := s.API.Users.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.Session.Login(res.Token, res.Role); err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"message": "session persist failed"})
		return
	}

	home := "/onboarding"
	if res.Role != nil {
		home = RoleHome(*res.Role)
	}
	respond(w, http.StatusOK, map[string]string{"redirect": home})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	res, err := s.API.Users.Signup(r.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.Session.Login(res.Token, res.Role); err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"message": "session persist failed"})
		return
	}
	// Fresh signups have no role yet and go through onboarding.
	respond(w, http.StatusCreated, map[string]string{"redirect": "/onboarding"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.Logout(); err != nil {
		logger.Warn("web: logout persist", "error", err)
	}
	respond(w, http.StatusOK, map[string]string{"redirect": "/login"})
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	role, ok := s.Session.Role()
	if ok {
		// Role arrived since login; nothing to onboard.
		respond(w, http.StatusOK, map[string]string{"redirect": RoleHome(role)})
		return
	}
	respond(w, http.StatusOK, map[string]string{
		"message": "your account is awaiting a role assignment",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.API.Users.Me(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, user)
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, s.Notices.Active())
}

// ─── Customer menu & cart ────────────────────────────────────────────────────

// menuView is the customer-facing rendering of a menu. Ordering controls
// are withheld entirely when the menu is not accepting orders.
type menuView struct {
	models.Menu
	CanOrder bool   `json:"canOrder"`
	Notice   string `json:"notice,omitempty"`
}

func (s *Server) handleCustomerMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := urlInt(r, "menuID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid menu id"})
		return
	}
	menu, err := s.API.Menus.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	view := menuView{Menu: menu, CanOrder: menu.IsAcceptingOrders}
	if !menu.IsAcceptingOrders {
		view.Notice = "This menu is not accepting orders right now."
	}
	respond(w, http.StatusOK, view)
}

func (s *Server) handleCartGet(w http.ResponseWriter, r *http.Request) {
	tableID, ok := urlInt(r, "tableID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid table id"})
		return
	}
	cart, err := s.API.Cart.Get(r.Context(), tableID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, cart)
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	tableID, ok := urlInt(r, "tableID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid table id"})
		return
	}
	var item models.CartItem
	if err := decodeBody(r, &item); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	cart, err := s.API.Cart.AddItem(r.Context(), tableID, item)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, cart)
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	cartItemID, ok := urlInt(r, "cartItemID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid cart item id"})
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeBody(r, &body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	cart, err := s.API.Cart.UpdateItem(r.Context(), cartItemID, body.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, cart)
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	cartItemID, ok := urlInt(r, "cartItemID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid cart item id"})
		return
	}
	if err := s.API.Cart.RemoveItem(r.Context(), cartItemID); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	tableID, ok := urlInt(r, "tableID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid table id"})
		return
	}
	order, err := s.API.Cart.PlaceOrder(r.Context(), tableID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, order)
}

// ─── Role dashboards ─────────────────────────────────────────────────────────

func (s *Server) handleChefOrders(w http.ResponseWriter, r *http.Request) {
	s.renderSet(w, r, "chef")
}

func (s *Server) handleWaiterOrders(w http.ResponseWriter, r *http.Request) {
	s.renderSet(w, r, "waiter")
}

func (s *Server) handlePOSOrders(w http.ResponseWriter, r *http.Request) {
	s.renderSet(w, r, "pos")
}

// renderSet serves a working set, retrying the snapshot on demand when the
// initial load failed.
func (s *Server) renderSet(w http.ResponseWriter, r *http.Request, name string) {
	ws, ok := s.workingSet(name)
	if !ok {
		respond(w, http.StatusServiceUnavailable, map[string]string{"message": "view not mounted"})
		return
	}
	if !ws.Loaded() {
		if err := ws.Retry(r.Context()); err != nil {
			respondError(w, err)
			return
		}
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"orders":   ws.Orders(),
		"realtime": string(s.Channel.State()),
	})
}

// broadcastStatus mirrors a successful local status mutation to peers and to
// the local bus so every mounted view reconciles without waiting for the echo.
// Never called on a failed mutation.
func (s *Server) broadcastStatus(order models.Order) {
	if s.Channel != nil {
		if err := s.Channel.Publish(realtime.EventStatusChange, order); err != nil {
			logger.Warn("web: broadcast skipped", "order", order.ID, "error", err)
		}
	}
	s.Bus.Fire(realtime.EventStatusChange, order)
}

func (s *Server) handleMarkReady(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlInt(r, "orderID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid order id"})
		return
	}
	order, err := s.API.Orders.UpdateStatus(r.Context(), orderID, models.StatusPreparing, models.StatusReady)
	if err != nil {
		respondError(w, err)
		return
	}
	s.broadcastStatus(order)
	respond(w, http.StatusOK, order)
}

func (s *Server) handleStatusUpdate(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlInt(r, "orderID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid order id"})
		return
	}
	var body struct {
		From models.Status `json:"from"`
		To   models.Status `json:"to"`
	}
	if err := decodeBody(r, &body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	order, err := s.API.Orders.UpdateStatus(r.Context(), orderID, body.From, body.To)
	if err != nil {
		respondError(w, err)
		return
	}
	s.broadcastStatus(order)
	respond(w, http.StatusOK, order)
}

func (s *Server) handlePOSComplete(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlInt(r, "orderID")
	if !ok {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid order id"})
		return
	}
	var body struct {
		Method        models.PaymentMethod `json:"paymentMethod"`
		TaxPercentage *float64             `json:"taxPercentage"`
		Notes         string               `json:"notes"`
	}
	if err := decodeBody(r, &body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	order, err := s.API.Orders.Get(r.Context(), orderID)
	if err != nil {
		respondError(w, err)
		return
	}

	checkout := pos.NewCheckout(order)
	if body.Method != "" {
		checkout.Method = body.Method
	}
	if body.TaxPercentage != nil {
		checkout.TaxPercentage = *body.TaxPercentage
	}
	checkout.Notes = body.Notes

	settlement, err := s.Terminal.Complete(r.Context(), checkout)
	if err != nil {
		if api.IsConflict(err) {
			respond(w, http.StatusConflict, map[string]string{"message": "order already completed"})
			return
		}
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"order":   settlement.Order,
		"receipt": settlement.Receipt,
		"kot":     settlement.KOT,
	})
}
