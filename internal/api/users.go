package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dinesync/dinesync/app/models"
	"github.com/dinesync/dinesync/pkg/httpkit"
)

// UsersClient covers authentication and user administration.
type UsersClient struct {
	c *client
}

// User is a platform account as the backend reports it.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"` // numeric role code as string, "" when unassigned
}

// RoleCode parses the numeric role string; ok is false when unassigned.
func (u User) RoleCode() (models.Role, bool) {
	if u.Role == "" {
		return models.RoleNone, false
	}
	code, err := strconv.Atoi(u.Role)
	if err != nil {
		return models.RoleNone, false
	}
	return models.Role(code), true
}

// LoginResult is what a successful login returns. Role is nil for accounts
// that signed up but were never role-assigned.
type LoginResult struct {
	Token string       `json:"token"`
	Role  *models.Role `json:"role,omitempty"`
}

// Login exchanges credentials for a token.
func (u *UsersClient) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	req := httpkit.Post(u.c.url("/users/login")).
		Body(map[string]string{"email": email, "password": password})
	if err := u.c.do(ctx, req, "users", "login", &out); err != nil {
		return LoginResult{}, err
	}

	result := LoginResult{Token: out.Token}
	if out.Role != "" {
		if code, err := strconv.Atoi(out.Role); err == nil {
			role := models.Role(code)
			result.Role = &role
		}
	}
	return result, nil
}

// Signup registers a new account. New accounts start roleless.
func (u *UsersClient) Signup(ctx context.Context, name, email, password string) (LoginResult, error) {
	var out struct {
		Token string `json:"token"`
	}
	req := httpkit.Post(u.c.url("/users/signup")).
		Body(map[string]string{"name": name, "email": email, "password": password})
	if err := u.c.do(ctx, req, "users", "signup", &out); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: out.Token}, nil
}

// Me returns the authenticated account.
func (u *UsersClient) Me(ctx context.Context) (User, error) {
	var out User
	err := u.c.do(ctx, httpkit.Get(u.c.url("/users/me")), "users", "me", &out)
	return out, err
}

// List returns all accounts (admin only).
func (u *UsersClient) List(ctx context.Context) ([]User, error) {
	var out []User
	err := u.c.do(ctx, httpkit.Get(u.c.url("/users")), "users", "list", &out)
	return out, err
}

// AssignRole sets a user's role (admin only).
func (u *UsersClient) AssignRole(ctx context.Context, userID int, role models.Role) error {
	req := httpkit.Put(u.c.url("/users/role")).
		Body(map[string]interface{}{"userId": userID, "role": fmt.Sprint(int(role))})
	return u.c.do(ctx, req, "users", "assign-role", nil)
}
