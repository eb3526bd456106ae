// Package session resolves the signed-in account, its credential and its
// role, and hands them to callers as an explicit Session value.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"tracker-parent/internal/credstore"
	"tracker-parent/internal/prefs"
)

type Role string

const (
	RoleUser          Role = "User"
	RoleAdministrator Role = "Administrator"
)

// ParseRole accepts the two known roles, ignoring case.
func ParseRole(s string) (Role, bool) {
	switch {
	case strings.EqualFold(s, string(RoleUser)):
		return RoleUser, true
	case strings.EqualFold(s, string(RoleAdministrator)):
		return RoleAdministrator, true
	}
	return "", false
}

var (
	ErrNoAccount    = errors.New("No signed-in account.")
	ErrNoCredential = errors.New("No auth model in keychain")
	ErrNoRole       = errors.New("Unable to determine the account role.")
)

type Session struct {
	Username   string
	Role       Role
	Credential credstore.Credential
}

func (s Session) AuthHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.Credential.Token}
}

func (s Session) IsAdministrator() bool {
	return s.Role == RoleAdministrator
}

// Owns reports whether username names this session's own account.
func (s Session) Owns(username string) bool {
	return strings.EqualFold(strings.TrimSpace(username), s.Username)
}

type Resolver struct {
	namespace string
	prefs     prefs.Store
	creds     credstore.Store
}

// NewResolver scopes credentials under namespace, normally the bundle id.
func NewResolver(namespace string, p prefs.Store, c credstore.Store) *Resolver {
	return &Resolver{namespace: namespace, prefs: p, creds: c}
}

func (r *Resolver) Namespace() string { return r.namespace }

func (r *Resolver) CurrentAccount(ctx context.Context) (string, error) {
	return r.prefs.String(ctx, prefs.KeyUsername)
}

// CurrentCredential loads the credential for account, or for the current
// account when account is empty.
func (r *Resolver) CurrentCredential(ctx context.Context, account string) (credstore.Credential, bool, error) {
	if account == "" {
		current, err := r.CurrentAccount(ctx)
		if err != nil {
			return credstore.Credential{}, false, err
		}
		account = current
	}
	return r.creds.Load(ctx, r.namespace, account)
}

// AuthHeaders returns the bearer header for account when a credential is
// stored, and no headers otherwise.
func (r *Resolver) AuthHeaders(ctx context.Context, account string) (map[string]string, error) {
	cred, ok, err := r.CurrentCredential(ctx, account)
	if err != nil {
		return nil, err
	}
	headers := map[string]string{}
	if ok {
		headers["Authorization"] = "Bearer " + cred.Token
	}
	return headers, nil
}

func (r *Resolver) Resolve(ctx context.Context) (Session, error) {
	account, err := r.CurrentAccount(ctx)
	if err != nil {
		return Session{}, err
	}
	if account == "" {
		return Session{}, ErrNoAccount
	}

	cred, ok, err := r.creds.Load(ctx, r.namespace, account)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNoCredential
	}

	role, ok := ParseRole(cred.UserRole)
	if !ok {
		role, ok = RoleFromToken(cred.Token)
	}
	if !ok {
		return Session{}, ErrNoRole
	}
	return Session{Username: account, Role: role, Credential: cred}, nil
}

// Establish records username as the current account and stores its
// credential with the resolved role attached.
func (r *Resolver) Establish(ctx context.Context, username string, cred credstore.Credential, role Role) (Session, error) {
	if role != "" {
		cred.UserRole = string(role)
	}
	if err := r.creds.Save(ctx, r.namespace, username, cred); err != nil {
		return Session{}, fmt.Errorf("store credential: %w", err)
	}
	if err := r.prefs.SetString(ctx, prefs.KeyUsername, username); err != nil {
		return Session{}, fmt.Errorf("store username: %w", err)
	}
	return Session{Username: username, Role: role, Credential: cred}, nil
}

// Store keeps a credential for account without changing the current account.
func (r *Resolver) Store(ctx context.Context, account string, cred credstore.Credential) error {
	return r.creds.Save(ctx, r.namespace, account, cred)
}

// Clear signs the current account out.
func (r *Resolver) Clear(ctx context.Context) error {
	account, err := r.CurrentAccount(ctx)
	if err != nil {
		return err
	}
	if err := r.prefs.Remove(ctx, prefs.KeyUsername); err != nil {
		return err
	}
	if account == "" {
		return nil
	}
	return r.creds.Delete(ctx, r.namespace, account)
}

const msRoleClaim = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

// RoleFromToken reads a role claim from a bearer token without verifying its
// signature; the identity service verifies tokens, this only routes requests.
func RoleFromToken(token string) (Role, bool) {
	if token == "" {
		return "", false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", false
	}
	for _, key := range []string{"role", "userRole", msRoleClaim} {
		switch v := claims[key].(type) {
		case string:
			if role, ok := ParseRole(v); ok {
				return role, true
			}
		case []any:
			for _, item := range v {
				if s, isString := item.(string); isString {
					if role, ok := ParseRole(s); ok {
						return role, true
					}
				}
			}
		}
	}
	return "", false
}
