package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/Yizhe0407/dormcheck/pkg/client"
	"github.com/Yizhe0407/dormcheck/pkg/domain"
)

// newBackend serves the three auth endpoints against a single valid token.
func newBackend(t *testing.T, validToken string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		switch r.URL.Path {
		case "/api/auth/me":
			if r.Header.Get("Authorization") != "Bearer "+validToken {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"message": "not authenticated"}) //nolint:errcheck
				return
			}
			json.NewEncoder(w).Encode(domain.Admin{Username: "a"}) //nolint:errcheck
		case "/api/auth/login":
			var creds client.Credentials
			json.NewDecoder(r.Body).Decode(&creds) //nolint:errcheck
			if creds.Password != "pw" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"message": "bad credentials"}) //nolint:errcheck
				return
			}
			json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
				"token": validToken,
				"admin": map[string]string{"username": creds.Username},
			})
		case "/api/auth/logout":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestStore(t *testing.T, baseURL string) (*Store, FileTokenStore) {
	t.Helper()
	tokens := FileTokenStore{Path: filepath.Join(t.TempDir(), "token")}
	api := client.New(baseURL, "")
	return New(api, tokens, nil), tokens
}

func TestInitNoToken(t *testing.T) {
	var calls atomic.Int32
	srv := newBackend(t, "T", &calls)
	defer srv.Close()

	store, _ := newTestStore(t, srv.URL)
	if got := store.Init(context.Background()); got != StateUnauthenticated {
		t.Errorf("Init() = %v, want StateUnauthenticated", got)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("server saw %d calls, want 0 when no token is stored", n)
	}
}

func TestInitValidToken(t *testing.T) {
	srv := newBackend(t, "T", nil)
	defer srv.Close()

	store, tokens := newTestStore(t, srv.URL)
	if err := tokens.Save("T"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	if got := store.Init(context.Background()); got != StateAuthenticated {
		t.Fatalf("Init() = %v, want StateAuthenticated", got)
	}
	if u := store.User(); u == nil || u.Username != "a" {
		t.Errorf("User() = %v, want username %q", u, "a")
	}
}

func TestInitRejectedTokenIsCleared(t *testing.T) {
	srv := newBackend(t, "T", nil)
	defer srv.Close()

	store, tokens := newTestStore(t, srv.URL)
	if err := tokens.Save("stale"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	if got := store.Init(context.Background()); got != StateUnauthenticated {
		t.Fatalf("Init() = %v, want StateUnauthenticated", got)
	}
	if _, err := os.Stat(tokens.Path); !os.IsNotExist(err) {
		t.Error("rejected token file should be removed")
	}
}

func TestLogin(t *testing.T) {
	srv := newBackend(t, "T", nil)
	defer srv.Close()

	store, tokens := newTestStore(t, srv.URL)
	user, err := store.Login(context.Background(), client.Credentials{Username: "a", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if user.Username != "a" {
		t.Errorf("Username = %q, want %q", user.Username, "a")
	}
	if !store.Authenticated() {
		t.Error("store should be authenticated after login")
	}
	if tok, _ := tokens.Load(); tok != "T" {
		t.Errorf("persisted token = %q, want %q", tok, "T")
	}
}

func TestLoginFailure(t *testing.T) {
	srv := newBackend(t, "T", nil)
	defer srv.Close()

	store, tokens := newTestStore(t, srv.URL)
	// Seed a stale token: a failed login must not leave it behind.
	if err := tokens.Save("stale"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	_, err := store.Login(context.Background(), client.Credentials{Username: "a", Password: "wrong"})
	if err == nil {
		t.Fatal("expected error for wrong password")
	}
	if store.Authenticated() {
		t.Error("store must not be authenticated after a failed login")
	}
	if tok, _ := tokens.Load(); tok != "" {
		t.Errorf("token = %q after failed login, want none", tok)
	}
}

func TestLogoutClearsLocalState(t *testing.T) {
	srv := newBackend(t, "T", nil)
	defer srv.Close()

	store, tokens := newTestStore(t, srv.URL)
	if _, err := store.Login(context.Background(), client.Credentials{Username: "a", Password: "pw"}); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	store.Logout(context.Background())
	if store.Authenticated() {
		t.Error("store should be unauthenticated after logout")
	}
	if tok, _ := tokens.Load(); tok != "" {
		t.Errorf("token = %q after logout, want none", tok)
	}
}

func TestLogoutBestEffort(t *testing.T) {
	// Backend that always fails the logout call.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tokens := FileTokenStore{Path: filepath.Join(t.TempDir(), "token")}
	if err := tokens.Save("T"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	api := client.New(srv.URL, "T")
	store := New(api, tokens, nil)
	store.set(StateAuthenticated, &domain.Admin{Username: "a"})

	store.Logout(context.Background())
	if store.Authenticated() {
		t.Error("local state must clear even when the logout call fails")
	}
	if tok, _ := tokens.Load(); tok != "" {
		t.Errorf("token = %q after best-effort logout, want none", tok)
	}
}

func TestStaticTokenStore(t *testing.T) {
	s := StaticTokenStore("env-token")
	if tok, err := s.Load(); err != nil || tok != "env-token" {
		t.Errorf("Load() = %q, %v", tok, err)
	}
	if err := s.Save("other"); err != nil {
		t.Errorf("Save() should be a no-op, got %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Errorf("Clear() should be a no-op, got %v", err)
	}
	if tok, _ := s.Load(); tok != "env-token" {
		t.Errorf("Load() after Clear() = %q, env value must persist", tok)
	}
}

func TestFileTokenStoreRoundTrip(t *testing.T) {
	s := FileTokenStore{Path: filepath.Join(t.TempDir(), "nested", "token")}
	if tok, err := s.Load(); err != nil || tok != "" {
		t.Fatalf("Load() on missing file = %q, %v; want empty, nil", tok, err)
	}
	if err := s.Save("abc"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if tok, _ := s.Load(); tok != "abc" {
		t.Errorf("Load() = %q, want %q", tok, "abc")
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Errorf("Clear() on missing file should be nil, got %v", err)
	}
}
