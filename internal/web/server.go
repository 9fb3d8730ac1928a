// Package web is the chi gateway that fronts the backend for browsers:
// session-guarded routes per role, JSON dashboard endpoints backed by the
// reconciled working sets, and the operational endpoints.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/app/pos"
	"github.com/dinesync/dinesync/app/viewmodels"
	"github.com/dinesync/dinesync/internal/api"
	"github.com/dinesync/dinesync/internal/realtime"
	"github.com/dinesync/dinesync/internal/session"
	"github.com/dinesync/dinesync/pkg/event"
	"github.com/dinesync/dinesync/pkg/logger"
	"github.com/dinesync/dinesync/pkg/metrics"
	"github.com/dinesync/dinesync/pkg/notify"
)

// Server holds everything the routes need.
type Server struct {
	API      *api.API
	Session  *session.Store
	Bus      *event.Bus
	Channel  *realtime.Channel
	Notices  *notify.Center
	Terminal *pos.Terminal

	router chi.Router
	sets   map[string]*viewmodels.WorkingSet
}

// NewServer wires the routes; the caller boots the dependencies.
func NewServer(a *api.API, store *session.Store, bus *event.Bus, ch *realtime.Channel, notices *notify.Center) *Server {
	s := &Server{
		API:      a,
		Session:  store,
		Bus:      bus,
		Channel:  ch,
		Notices:  notices,
		Terminal: pos.NewTerminal(a.Orders, ch, bus),
		sets:     make(map[string]*viewmodels.WorkingSet),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Guest surface.
	r.Group(func(r chi.Router) {
		r.Use(GuestOnly(s.Session))
		r.Post("/login", s.handleLogin)
		r.Post("/signup", s.handleSignup)
	})

	// Public customer surface: the menu is browsable without a session.
	r.Get("/menu/{menuID}", s.handleCustomerMenu)

	// Authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(s.Session))
		r.Post("/logout", s.handleLogout)
		r.Get("/onboarding", s.handleOnboarding)

		// Roleless sessions stop at onboarding; everything past here
		// needs an assigned role.
		r.Group(func(r chi.Router) {
			r.Use(RequireAssigned(s.Session))
			r.Get("/me", s.handleMe)
			r.Get("/notices", s.handleNotices)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(RequireRole(s.Session, models.RoleCustomer, models.RoleWaiter, models.RoleAdmin))
			r.Get("/{tableID}", s.handleCartGet)
			r.Post("/{tableID}/items", s.handleCartAdd)
			r.Put("/items/{cartItemID}", s.handleCartUpdate)
			r.Delete("/items/{cartItemID}", s.handleCartRemove)
			r.Post("/{tableID}/order", s.handlePlaceOrder)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(s.Session, models.RoleChef))
			r.Get("/chef/orders", s.handleChefOrders)
			r.Put("/chef/orders/{orderID}/ready", s.handleMarkReady)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(s.Session, models.RoleWaiter, models.RoleAdmin))
			r.Get("/waiter/orders", s.handleWaiterOrders)
			r.Put("/waiter/orders/{orderID}/status", s.handleStatusUpdate)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(s.Session, models.RolePOSAdmin))
			r.Get("/pos/orders", s.handlePOSOrders)
			r.Post("/pos/orders/{orderID}/complete", s.handlePOSComplete)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(s.Session, models.RoleAdmin))
			r.Route("/admin", s.adminRoutes)
		})
	})

	s.router = r
}

// Mount prepares the long-lived role working sets and starts their
// subscriptions. Called once after the realtime channel is connected.
func (s *Server) Mount(ctx context.Context) {
	fetchByView := map[string]struct {
		view  viewmodels.View
		fetch viewmodels.FetchFunc
	}{
		"chef": {viewmodels.ChefView, func(ctx context.Context) ([]models.Order, error) {
			return s.API.Orders.ByStatus(ctx, models.StatusPreparing)
		}},
		"waiter": {viewmodels.WaiterView, func(ctx context.Context) ([]models.Order, error) {
			dash, err := s.API.Orders.WaiterDashboard(ctx)
			if err != nil {
				return nil, err
			}
			return dash.Active, nil
		}},
		"pos": {viewmodels.POSAwaitingView, func(ctx context.Context) ([]models.Order, error) {
			return s.API.Orders.POSDelivered(ctx)
		}},
	}

	for name, b := range fetchByView {
		ws := viewmodels.NewWorkingSet(b.view, b.fetch, s.Bus)
		ws.Start()
		if err := ws.Load(ctx); err != nil {
			logger.Warn("web: initial snapshot failed, view stays retryable", "view", name, "error", err)
		}
		s.sets[name] = ws
	}
}

// Close detaches the working sets.
func (s *Server) Close() {
	for _, ws := range s.sets {
		ws.Close()
	}
}

func (s *Server) workingSet(name string) (*viewmodels.WorkingSet, bool) {
	ws, ok := s.sets[name]
	return ws, ok
}

// Handler exposes the router for the http server and for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then drains with a grace period.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
