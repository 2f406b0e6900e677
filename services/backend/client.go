package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DataAPI reads and writes rows through the data API. Row-level security is
// applied with whatever token the implementation carries.
type DataAPI interface {
	Select(ctx context.Context, q *Query, out any) (int64, error)
	Insert(ctx context.Context, table string, rows any, out any) error
	Upsert(ctx context.Context, table string, rows any, onConflict string) error
	Update(ctx context.Context, table string, patch map[string]any, filters ...Filter) error
	Delete(ctx context.Context, table string, filters ...Filter) error
	RPC(ctx context.Context, fn string, params map[string]any, out any) error
}

// AuthAPI is the identity surface used by the web session layer.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*User, error)
}

// AdminAPI manages identities and requires the service-role key.
type AdminAPI interface {
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	DeleteUser(ctx context.Context, id string) error
}

// User is a backend identity.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// Session is a token pair issued by sign-in or refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// Expiry returns the access token expiry.
func (s *Session) Expiry(now time.Time) time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	return now.Add(time.Duration(s.ExpiresIn) * time.Second)
}

// CreateUserParams is the admin create-user payload.
type CreateUserParams struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// Client talks to the hosted backend over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	token   string
	client  *http.Client
}

// New creates a client using the public anon key.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewAdmin creates a client authorised with the service-role key.
func NewAdmin(baseURL, serviceRoleKey string) *Client {
	c := New(baseURL, serviceRoleKey)
	c.token = serviceRoleKey
	return c
}

// WithToken returns a copy that sends accessToken as the bearer.
func (c *Client) WithToken(accessToken string) *Client {
	cp := *c
	cp.token = accessToken
	return &cp
}

// WithHTTPClient swaps the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.client = hc
	return &cp
}

// IsConfigured reports whether URL and key are present.
func (c *Client) IsConfigured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
}

func (c *Client) do(ctx context.Context, r request) (*http.Response, []byte, error) {
	if !c.IsConfigured() {
		return nil, nil, ErrNotConfigured
	}

	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("apikey", c.apiKey)
	bearer := c.token
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var w wireError
		if len(raw) > 0 && json.Unmarshal(raw, &w) == nil {
			return resp, raw, w.toError(resp.StatusCode)
		}
		return resp, raw, &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	return resp, raw, nil
}

func decodeInto(raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrTransport, err)
	}
	return nil
}

// Select runs q and decodes the rows into out. The returned count is only
// meaningful when q asked for it, and is also returned with the 416 error
// for a range that starts past the last row.
func (c *Client) Select(ctx context.Context, q *Query, out any) (int64, error) {
	headers := map[string]string{}
	if q.count {
		headers["Prefer"] = "count=exact"
	}
	resp, raw, err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/rest/v1/" + q.table,
		query:   q.values(),
		headers: headers,
	})
	if err != nil {
		// A range past the last row still reports the total.
		if q.count && resp != nil && resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
			total, _ := parseContentRange(resp.Header.Get("Content-Range"))
			return total, err
		}
		return 0, err
	}
	if err := decodeInto(raw, out); err != nil {
		return 0, err
	}
	var total int64
	if q.count {
		total, _ = parseContentRange(resp.Header.Get("Content-Range"))
	}
	return total, nil
}

// Insert adds rows and, when out is non-nil, decodes the created representation.
func (c *Client) Insert(ctx context.Context, table string, rows any, out any) error {
	prefer := "return=minimal"
	if out != nil {
		prefer = "return=representation"
	}
	_, raw, err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/rest/v1/" + table,
		body:    rows,
		headers: map[string]string{"Prefer": prefer},
	})
	if err != nil {
		return err
	}
	return decodeInto(raw, out)
}

// Upsert inserts rows, merging on the onConflict column.
func (c *Client) Upsert(ctx context.Context, table string, rows any, onConflict string) error {
	q := url.Values{}
	if onConflict != "" {
		q.Set("on_conflict", onConflict)
	}
	_, _, err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/rest/v1/" + table,
		query:   q,
		body:    rows,
		headers: map[string]string{"Prefer": "resolution=merge-duplicates,return=minimal"},
	})
	return err
}

// Update patches every row matching filters. At least one filter is required.
func (c *Client) Update(ctx context.Context, table string, patch map[string]any, filters ...Filter) error {
	if len(filters) == 0 {
		return fmt.Errorf("backend: refusing unfiltered update on %s", table)
	}
	_, _, err := c.do(ctx, request{
		method:  http.MethodPatch,
		path:    "/rest/v1/" + table,
		query:   filterValues(filters),
		body:    patch,
		headers: map[string]string{"Prefer": "return=minimal"},
	})
	return err
}

// Delete removes the rows matching filters. Like Update it refuses to run
// without a filter.
func (c *Client) Delete(ctx context.Context, table string, filters ...Filter) error {
	if len(filters) == 0 {
		return fmt.Errorf("backend: refusing unfiltered delete on %s", table)
	}
	_, _, err := c.do(ctx, request{
		method:  http.MethodDelete,
		path:    "/rest/v1/" + table,
		query:   filterValues(filters),
		headers: map[string]string{"Prefer": "return=minimal"},
	})
	return err
}

// RPC invokes a stored procedure with named parameters.
func (c *Client) RPC(ctx context.Context, fn string, params map[string]any, out any) error {
	if params == nil {
		params = map[string]any{}
	}
	_, raw, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/rpc/" + fn,
		body:   params,
	})
	if err != nil {
		return err
	}
	return decodeInto(raw, out)
}
