package session

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"tracker-parent/internal/credstore"
	"tracker-parent/internal/prefs"
)

const testNamespace = "au.com.matrixthoughts.TrackerParent"

func newResolver() (*Resolver, *prefs.Memory, *credstore.Keychain) {
	p := prefs.NewMemory()
	kc := credstore.NewKeychain(credstore.NewMemoryBackend(), nil)
	return NewResolver(testNamespace, p, kc), p, kc
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestCurrentAccountDefaultsEmpty(t *testing.T) {
	r, _, _ := newResolver()
	account, err := r.CurrentAccount(context.Background())
	if err != nil || account != "" {
		t.Fatalf("expected empty account, got %q (%v)", account, err)
	}
}

func TestEstablishAndResolve(t *testing.T) {
	ctx := context.Background()
	r, p, _ := newResolver()

	sess, err := r.Establish(ctx, "parent@example.com", credstore.Credential{Token: "tok"}, RoleUser)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if sess.Role != RoleUser || sess.Credential.UserRole != "User" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if v, _ := p.String(ctx, prefs.KeyUsername); v != "parent@example.com" {
		t.Fatalf("expected username preference, got %q", v)
	}

	resolved, err := r.Resolve(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Username != "parent@example.com" || resolved.Role != RoleUser || resolved.Credential.Token != "tok" {
		t.Fatalf("unexpected resolved session: %+v", resolved)
	}
	if h := resolved.AuthHeader(); h["Authorization"] != "Bearer tok" {
		t.Fatalf("unexpected auth header: %v", h)
	}
}

func TestResolveErrors(t *testing.T) {
	ctx := context.Background()
	r, p, kc := newResolver()

	if _, err := r.Resolve(ctx); !errors.Is(err, ErrNoAccount) {
		t.Fatalf("expected ErrNoAccount, got %v", err)
	}

	_ = p.SetString(ctx, prefs.KeyUsername, "kid@example.com")
	if _, err := r.Resolve(ctx); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}

	_ = kc.Save(ctx, testNamespace, "kid@example.com", credstore.Credential{Token: "opaque"})
	if _, err := r.Resolve(ctx); !errors.Is(err, ErrNoRole) {
		t.Fatalf("expected ErrNoRole, got %v", err)
	}
}

func TestResolveRoleFromToken(t *testing.T) {
	ctx := context.Background()
	r, p, kc := newResolver()

	token := signed(t, jwt.MapClaims{msRoleClaim: "Administrator", "sub": "admin@example.com"})
	_ = p.SetString(ctx, prefs.KeyUsername, "admin@example.com")
	_ = kc.Save(ctx, testNamespace, "admin@example.com", credstore.Credential{Token: token})

	sess, err := r.Resolve(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !sess.IsAdministrator() {
		t.Fatalf("expected administrator from token claim")
	}
}

func TestRoleFromToken(t *testing.T) {
	if _, ok := RoleFromToken(""); ok {
		t.Fatalf("expected no role for empty token")
	}
	if _, ok := RoleFromToken("not.a.jwt"); ok {
		t.Fatalf("expected no role for garbage token")
	}
	role, ok := RoleFromToken(signed(t, jwt.MapClaims{"role": []any{"Reader", "user"}}))
	if !ok || role != RoleUser {
		t.Fatalf("expected User from role list, got %q", role)
	}
}

func TestAuthHeadersAndClear(t *testing.T) {
	ctx := context.Background()
	r, p, kc := newResolver()

	h, err := r.AuthHeaders(ctx, "")
	if err != nil || len(h) != 0 {
		t.Fatalf("expected no headers without credential, got %v (%v)", h, err)
	}

	if _, err := r.Establish(ctx, "parent@example.com", credstore.Credential{Token: "tok"}, RoleUser); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if err := r.Store(ctx, "other@example.com", credstore.Credential{Token: "other"}); err != nil {
		t.Fatalf("store: %v", err)
	}

	h, _ = r.AuthHeaders(ctx, "")
	if h["Authorization"] != "Bearer tok" {
		t.Fatalf("unexpected current headers: %v", h)
	}
	h, _ = r.AuthHeaders(ctx, "other@example.com")
	if h["Authorization"] != "Bearer other" {
		t.Fatalf("unexpected explicit headers: %v", h)
	}

	if err := r.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if v, _ := p.String(ctx, prefs.KeyUsername); v != "" {
		t.Fatalf("expected username cleared")
	}
	if _, ok, _ := kc.Load(ctx, testNamespace, "parent@example.com"); ok {
		t.Fatalf("expected credential deleted")
	}
	if _, ok, _ := kc.Load(ctx, testNamespace, "other@example.com"); !ok {
		t.Fatalf("expected other account's credential to remain")
	}
}

func TestSessionOwns(t *testing.T) {
	s := Session{Username: "parent@example.com"}
	if !s.Owns(" Parent@Example.com ") {
		t.Fatalf("expected case-insensitive ownership")
	}
	if s.Owns("kid@example.com") {
		t.Fatalf("expected other account not owned")
	}
}
