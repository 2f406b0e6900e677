package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// identity returns an auth client bound to ctx. bearer is sent as the
// Authorization token when non-empty.
func (c *Client) identity(ctx context.Context, bearer string) (gotrue.Client, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	base := c.client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	g := gotrue.New("", c.apiKey).
		WithCustomGoTrueURL(c.baseURL + "/auth/v1").
		WithClient(http.Client{
			Transport: contextTransport{ctx: ctx, base: base},
			Timeout:   c.client.Timeout,
		})
	if bearer != "" {
		g = g.WithToken(bearer)
	}
	return g, nil
}

// contextTransport attaches ctx to requests built without one.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// statusError matches the auth client's non-2xx error text.
var statusError = regexp.MustCompile(`(?s)^response status code (\d+)(?:: (.*))?$`)

// identityError maps auth client failures onto ErrTransport and *Error.
func identityError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, types.ErrInvalidTokenRequest) {
		return &Error{Status: http.StatusBadRequest, Code: "invalid_grant", Message: err.Error()}
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	m := statusError.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	status, _ := strconv.Atoi(m[1])
	var w wireError
	if body := strings.TrimSpace(m[2]); body != "" {
		if json.Unmarshal([]byte(body), &w) == nil {
			return w.toError(status)
		}
		return &Error{Status: status, Message: body}
	}
	return &Error{Status: status}
}

func userFrom(u types.User) User {
	out := User{Email: u.Email, UserMetadata: u.UserMetadata}
	if u.ID != uuid.Nil {
		out.ID = u.ID.String()
	}
	return out
}

func sessionFrom(s types.Session) *Session {
	return &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
		User:         userFrom(s.User),
	}
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.grant(ctx, types.TokenRequest{GrantType: "password", Email: email, Password: password})
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	return c.grant(ctx, types.TokenRequest{GrantType: "refresh_token", RefreshToken: refreshToken})
}

func (c *Client) grant(ctx context.Context, req types.TokenRequest) (*Session, error) {
	g, err := c.identity(ctx, "")
	if err != nil {
		return nil, err
	}
	resp, err := g.Token(req)
	if err != nil {
		return nil, identityError(err)
	}
	if resp.AccessToken == "" {
		return nil, &Error{Status: http.StatusUnauthorized, Message: "no access token issued"}
	}
	return sessionFrom(resp.Session), nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	g, err := c.identity(ctx, accessToken)
	if err != nil {
		return err
	}
	return identityError(g.Logout())
}

// GetUser returns the identity behind accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	g, err := c.identity(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	resp, err := g.GetUser()
	if err != nil {
		return nil, identityError(err)
	}
	u := userFrom(resp.User)
	return &u, nil
}

// CreateUser provisions an identity. Requires a client from NewAdmin.
func (c *Client) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	g, err := c.identity(ctx, c.token)
	if err != nil {
		return nil, err
	}
	password := params.Password
	resp, err := g.AdminCreateUser(types.AdminCreateUserRequest{
		Email:        params.Email,
		Password:     &password,
		EmailConfirm: params.EmailConfirm,
		UserMetadata: params.UserMetadata,
	})
	if err != nil {
		return nil, identityError(err)
	}
	u := userFrom(resp.User)
	return &u, nil
}

// GetUserByID looks up an identity. Missing identities, and ids that cannot
// name one, return ErrNotFound.
func (c *Client) GetUserByID(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	g, err := c.identity(ctx, c.token)
	if err != nil {
		return nil, err
	}
	resp, err := g.AdminGetUser(types.AdminGetUserRequest{UserID: uid})
	if err != nil {
		err = identityError(err)
		if be, ok := AsError(err); ok && be.Status == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u := userFrom(resp.User)
	return &u, nil
}

// DeleteUser removes an identity.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf("invalid user id %q", id)}
	}
	g, err := c.identity(ctx, c.token)
	if err != nil {
		return err
	}
	return identityError(g.AdminDeleteUser(types.AdminDeleteUserRequest{UserID: uid}))
}
