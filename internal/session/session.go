// Package session owns the client-side authentication state: the bearer
// token, its persistence, and the admin identity it belongs to. It is the
// only writer of the API client's token.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Yizhe0407/dormcheck/pkg/client"
	"github.com/Yizhe0407/dormcheck/pkg/domain"
)

// State is the session lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "uninitialized"
	}
}

// Store is the process-wide session store. One Store exists per running
// client. The mutex covers state/user only; network calls happen outside the
// critical section so views never block on an in-flight login.
type Store struct {
	api    *client.Client
	tokens TokenStore
	log    *slog.Logger

	mu    sync.Mutex
	state State
	user  *domain.Admin
}

// New creates a session store over the given API client and token store.
// A nil logger is replaced with a discarding one.
func New(api *client.Client, tokens TokenStore, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(discardHandler{})
	}
	return &Store{api: api, tokens: tokens, log: log, state: StateUninitialized}
}

// Init resolves the initial session state once at startup: a persisted token
// is validated with a who-am-I call; a failed validation clears the stored
// token. No persisted token means Unauthenticated with no network call.
func (s *Store) Init(ctx context.Context) State {
	s.set(StateLoading, nil)

	tok, err := s.tokens.Load()
	if err != nil {
		s.log.Warn("token load failed", "err", err)
		tok = ""
	}
	if tok == "" {
		s.set(StateUnauthenticated, nil)
		return StateUnauthenticated
	}

	s.api.SetToken(tok)
	user, err := s.api.Me(ctx)
	if err != nil {
		s.log.Info("stored token rejected", "err", err)
		s.api.ClearToken()
		if cerr := s.tokens.Clear(); cerr != nil {
			s.log.Warn("token clear failed", "err", cerr)
		}
		s.set(StateUnauthenticated, nil)
		return StateUnauthenticated
	}

	s.set(StateAuthenticated, user)
	return StateAuthenticated
}

// Login authenticates with the backend. Any existing token and identity are
// cleared before the call, so a failed login always leaves the store
// unauthenticated. On success the returned token is persisted and installed
// on the API client.
func (s *Store) Login(ctx context.Context, creds client.Credentials) (*domain.Admin, error) {
	s.api.ClearToken()
	if err := s.tokens.Clear(); err != nil {
		s.log.Warn("token clear failed", "err", err)
	}
	s.set(StateUnauthenticated, nil)

	res, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Save(res.Token); err != nil {
		// Session still works for this run; only persistence is lost.
		s.log.Warn("token save failed", "err", err)
	}
	s.api.SetToken(res.Token)
	user := res.User
	s.set(StateAuthenticated, &user)
	s.log.Info("login", "username", user.Username)
	return &user, nil
}

// Logout tells the backend best-effort and clears local state regardless:
// local session truth wins over a potentially unreachable backend.
func (s *Store) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warn("logout call failed", "err", err)
	}
	s.api.ClearToken()
	if err := s.tokens.Clear(); err != nil {
		s.log.Warn("token clear failed", "err", err)
	}
	s.set(StateUnauthenticated, nil)
	s.log.Info("logout")
}

// Current returns the session state.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the authenticated admin, or nil.
func (s *Store) User() *domain.Admin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Authenticated reports whether an admin is signed in.
func (s *Store) Authenticated() bool {
	return s.Current() == StateAuthenticated
}

func (s *Store) set(state State, user *domain.Admin) {
	s.mu.Lock()
	s.state = state
	s.user = user
	s.mu.Unlock()
}

// discardHandler drops all records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
