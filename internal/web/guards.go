package web

import (
	"net/http"
	"net/url"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/internal/session"
)

// roleHome is where each role lands after login and where authenticated
// users are bounced from guest-only pages.
var roleHome = map[models.Role]string{
	models.RoleAdmin:    "/admin",
	models.RoleChef:     "/chef",
	models.RoleWaiter:   "/waiter",
	models.RolePOSAdmin: "/pos",
	models.RoleCustomer: "/menu",
}

// RoleHome returns the landing path for role; customers and unknown roles
// land on the public menu.
func RoleHome(role models.Role) string {
	if home, ok := roleHome[role]; ok {
		return home
	}
	return "/menu"
}

// RequireAuth redirects anonymous or expired sessions to the login page,
// preserving the requested path for post-login return.
func RequireAuth(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.IsValid() {
				to := "/login?next=" + url.QueryEscape(r.URL.Path)
				http.Redirect(w, r, to, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole allows only the listed roles through. A valid session without
// a role is sent to onboarding; a wrong role is sent home rather than shown
// an error page.
func RequireRole(store *session.Store, roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := store.Role()
			if !ok {
				http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
				return
			}
			if !allowed[role] {
				http.Redirect(w, r, RoleHome(role), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAssigned lets any session with an assigned role through. Roleless
// sessions see only the onboarding screen until an admin assigns a role.
func RequireAssigned(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := store.Role(); !ok {
				http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GuestOnly keeps authenticated users off the login and signup pages by
// redirecting them to their role home, or to onboarding when no role is
// assigned yet.
func GuestOnly(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store.IsValid() {
				role, ok := store.Role()
				if !ok {
					http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
					return
				}
				http.Redirect(w, r, RoleHome(role), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
