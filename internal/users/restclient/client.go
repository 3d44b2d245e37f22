// Package restclient talks to a REST users backend exposing /users and
// /users/{id}.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/odyssey-erp/useradmin/internal/shared"
	"github.com/odyssey-erp/useradmin/internal/users"
)

// StatusError reports a non-success response from the backend.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("restclient: %s: backend returned status %d", e.Op, e.StatusCode)
}

// Is maps HTTP statuses onto the shared sentinel errors.
func (e *StatusError) Is(target error) bool {
	switch target {
	case shared.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case shared.ErrDuplicate:
		return e.StatusCode == http.StatusConflict
	case shared.ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case shared.ErrBackendUnavailable:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// Client wraps interactions with the users REST backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a new client. token is sent as a bearer token when set.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListUsers fetches the whole collection.
func (c *Client) ListUsers(ctx context.Context) ([]users.User, error) {
	var wire []wireUser
	if err := c.do(ctx, "list users", http.MethodGet, "/users", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]users.User, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.user())
	}
	return out, nil
}

// GetUser fetches one user.
func (c *Client) GetUser(ctx context.Context, id string) (users.User, error) {
	var wire wireUser
	if err := c.do(ctx, "get user", http.MethodGet, userPath(id), nil, &wire); err != nil {
		return users.User{}, err
	}
	return wire.user(), nil
}

// CreateUser posts a new user.
func (c *Client) CreateUser(ctx context.Context, u users.User) (users.User, error) {
	var wire wireUser
	if err := c.do(ctx, "create user", http.MethodPost, "/users", u, &wire); err != nil {
		return users.User{}, err
	}
	return wire.user(), nil
}

// UpdateUser sends a partial update.
func (c *Client) UpdateUser(ctx context.Context, id string, p users.Patch) (users.User, error) {
	var wire wireUser
	if err := c.do(ctx, "update user", http.MethodPatch, userPath(id), p, &wire); err != nil {
		return users.User{}, err
	}
	return wire.user(), nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, "delete user", http.MethodDelete, userPath(id), nil, nil)
}

var _ users.Backend = (*Client)(nil)

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("restclient: %s: encode: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("restclient: %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return shared.Unavailable("restclient: "+op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("restclient: %s: decode: %w", op, err)
	}
	return nil
}

func userPath(id string) string {
	return "/users/" + url.PathEscape(id)
}

// wireUser accepts numeric ids as served by json-server style backends.
type wireUser struct {
	ID flexibleID `json:"id"`
	users.User
}

func (w wireUser) user() users.User {
	u := w.User
	u.ID = string(w.ID)
	return u
}

type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}
