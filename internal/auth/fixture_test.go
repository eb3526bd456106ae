package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"tracker-parent/internal/credstore"
	"tracker-parent/internal/gateway"
	"tracker-parent/internal/prefs"
	"tracker-parent/internal/session"
)

const testNamespace = "au.com.matrixthoughts.TrackerParent"

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

// identityServer is a scripted stand-in for the identity API.
type identityServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recorded
	routes   map[string]func(r recorded) any
}

func newIdentityServer(t *testing.T) *identityServer {
	t.Helper()
	s := &identityServer{routes: map[string]func(recorded) any{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Auth: r.Header.Get("Authorization")}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		s.mu.Lock()
		s.requests = append(s.requests, rec)
		handler := s.routes[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if handler == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(handler(rec))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *identityServer) on(method, path string, fn func(r recorded) any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = fn
}

func (s *identityServer) Requests() []recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recorded(nil), s.requests...)
}

type harness struct {
	server   *identityServer
	prefs    *prefs.Memory
	creds    *credstore.Keychain
	resolver *session.Resolver
	svc      *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := newIdentityServer(t)
	p := prefs.NewMemory()
	k := credstore.NewKeychain(credstore.NewMemoryBackend(), nil)
	resolver := session.NewResolver(testNamespace, p, k)
	gw := gateway.New(gateway.Options{Platform: "test", AppVersion: "1.0"})
	return &harness{
		server:   srv,
		prefs:    p,
		creds:    k,
		resolver: resolver,
		svc:      NewService(gw, srv.URL+"/api", resolver, nil),
	}
}

func strPtr(s string) *string { return &s }
