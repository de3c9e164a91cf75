package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Yizhe0407/dormcheck/pkg/domain"
)

// requestTimeout bounds every outbound call. A call that exceeds it is
// cancelled client-side and reported as KindTimeout.
const requestTimeout = 10 * time.Second

// Credentials is the login payload. It is transient and never persisted.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the validated outcome of a login call.
type LoginResult struct {
	Token string
	User  domain.Admin
}

// AddReservationRequest is the payload for creating a reservation.
type AddReservationRequest struct {
	Building   string `json:"building"`
	Floor      string `json:"floor"`
	RoomNumber string `json:"room_number"`
}

// verdictRequest records a qualify/unqualify decision against a room.
type verdictRequest struct {
	Building   string `json:"building"`
	RoomNumber string `json:"room_number"`
	Username   string `json:"username"`
}

// Filter selects which reservation collection to fetch.
type Filter int

const (
	FilterAll Filter = iota
	FilterPending
	FilterQualified
	FilterUnqualified
)

func (f Filter) path() string {
	switch f {
	case FilterPending:
		return "/api/reserve/unchecked"
	case FilterQualified:
		return "/api/reserve/pass"
	case FilterUnqualified:
		return "/api/reserve/failed"
	default:
		return "/api/reserve/all"
	}
}

func (f Filter) String() string {
	switch f {
	case FilterPending:
		return "pending"
	case FilterQualified:
		return "qualified"
	case FilterUnqualified:
		return "unqualified"
	default:
		return "all"
	}
}

// Client is the dormitory reservation API client. The token is mutable so the
// session store can install or clear it over the client's lifetime; access is
// guarded because bubbletea commands call concurrently.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a new API client. token may be empty; unauthenticated endpoints
// work without one.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// SetToken installs the bearer token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login authenticates with username/password. Unlike other endpoints the
// response shape is validated strictly: a 2xx body missing either the token
// or the admin object fails with KindMalformedResponse, so a backend contract
// change cannot silently produce a broken session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var body struct {
		Token string        `json:"token"`
		Admin *domain.Admin `json:"admin"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", creds, &body, false); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	if body.Token == "" || body.Admin == nil {
		return nil, fmt.Errorf("client.Login: %w",
			&APIError{Kind: KindMalformedResponse, Message: "login response missing token or admin"})
	}
	return &LoginResult{Token: body.Token, User: *body.Admin}, nil
}

// Me validates the current token and returns the admin it belongs to.
func (c *Client) Me(ctx context.Context) (*domain.Admin, error) {
	var admin domain.Admin
	if err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", nil, &admin, true); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &admin, nil
}

// Logout invalidates the session server-side.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/logout", nil, nil, true); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// AddReservation creates a new reservation.
func (c *Client) AddReservation(ctx context.Context, req AddReservationRequest) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/reserve/add", req, nil, false); err != nil {
		return fmt.Errorf("client.AddReservation: %w", err)
	}
	return nil
}

// Reservations fetches the reservation collection for the given filter.
// A 2xx response with no usable list yields an empty slice, not an error.
func (c *Client) Reservations(ctx context.Context, f Filter) ([]domain.Reservation, error) {
	var body struct {
		Reserves []domain.Reservation `json:"reserves"`
	}
	if err := c.doRequest(ctx, http.MethodGet, f.path(), nil, &body, false); err != nil {
		return nil, fmt.Errorf("client.Reservations: %w", err)
	}
	if body.Reserves == nil {
		return []domain.Reservation{}, nil
	}
	return body.Reserves, nil
}

// Qualify records a passing verdict against a room, attributed to username.
func (c *Client) Qualify(ctx context.Context, key domain.RoomKey, username string) error {
	req := verdictRequest{Building: key.Building, RoomNumber: key.RoomNumber, Username: username}
	if err := c.doRequest(ctx, http.MethodPost, "/api/reserve/qualified", req, nil, false); err != nil {
		return fmt.Errorf("client.Qualify: %w", err)
	}
	return nil
}

// Unqualify records a failing verdict against a room, attributed to username.
func (c *Client) Unqualify(ctx context.Context, key domain.RoomKey, username string) error {
	req := verdictRequest{Building: key.Building, RoomNumber: key.RoomNumber, Username: username}
	if err := c.doRequest(ctx, http.MethodPost, "/api/reserve/unqualified", req, nil, false); err != nil {
		return fmt.Errorf("client.Unqualify: %w", err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, out any, authed bool) error {
	var token string
	if authed {
		token = c.currentToken()
		if token == "" {
			// Precondition failure, not a server round trip.
			return &APIError{Kind: KindUnauthenticated, Message: "no auth token"}
		}
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return &APIError{Kind: KindTimeout, Message: "request timed out after " + requestTimeout.String()}
		}
		return &APIError{Kind: KindRequestFailed, Message: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max body
	if err != nil {
		return &APIError{Kind: KindRequestFailed, StatusCode: resp.StatusCode,
			Message: fmt.Sprintf("failed to read body: %v", err)}
	}

	if resp.StatusCode >= 400 {
		return &APIError{Kind: KindRequestFailed, StatusCode: resp.StatusCode,
			Message: errorMessage(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &APIError{Kind: KindParseError, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// errorMessage extracts the server-provided message from an error body,
// falling back to the raw text.
func errorMessage(body []byte) string {
	var apiErr struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.Error != "" {
			return apiErr.Error
		}
	}
	return string(bytes.TrimSpace(body))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
