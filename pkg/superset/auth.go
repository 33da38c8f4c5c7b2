package superset

import (
	"context"
	"net/http"

	"github.com/dashforge/supergrid/pkg/errors"
	"github.com/dashforge/supergrid/pkg/observability"
	"github.com/dashforge/supergrid/pkg/session"
)

// User describes the account behind the current tokens.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Provider string `json:"provider"`
	Refresh  bool   `json:"refresh"`
}

// ensureAuth authenticates on the first request of a client that was
// built from credentials rather than a stored session.
func (c *Client) ensureAuth(ctx context.Context) error {
	c.mu.Lock()
	have := c.accessToken != ""
	c.mu.Unlock()
	if have {
		return nil
	}
	return c.Authenticate(ctx)
}

// Authenticate logs in with the configured credentials and, unless
// CSRF is disabled, fetches the CSRF token for mutating requests.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "username and password are required to authenticate")
	}

	body, err := encodeBody(loginRequest{
		Username: c.username,
		Password: c.password,
		Provider: c.provider,
		Refresh:  true,
	})
	if err != nil {
		return err
	}

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	err = c.doRetry(ctx, http.MethodPost, c.apiURL("security/login"), contentTypeJSON, "", "", body, &out)
	observability.Auth().OnLogin(ctx, c.host, c.username, err)
	if err != nil {
		return err
	}
	if out.AccessToken == "" {
		return errors.New(errors.ErrCodeUnauthorized, "login response carried no access token")
	}

	c.mu.Lock()
	c.accessToken = out.AccessToken
	c.refreshToken = out.RefreshToken
	c.csrfToken = ""
	c.mu.Unlock()

	if c.useCSRF {
		return c.fetchCSRF(ctx)
	}
	return nil
}

// fetchCSRF exchanges the access token for a CSRF token. Superset
// requires it in the X-CSRFToken header of every mutating request.
func (c *Client) fetchCSRF(ctx context.Context) error {
	access, _ := c.tokens()

	var out struct {
		Result string `json:"result"`
	}
	if err := c.doRetry(ctx, http.MethodGet, c.apiURL("security/csrf_token/"), contentTypeJSON, access, "", nil, &out); err != nil {
		return err
	}

	c.mu.Lock()
	c.csrfToken = out.Result
	c.mu.Unlock()
	return nil
}

// Refresh trades the refresh token for a fresh access token without
// resending credentials.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()
	if refresh == "" {
		return errors.New(errors.ErrCodeSessionExpired, "no refresh token held, login required")
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.doRetry(ctx, http.MethodPost, c.apiURL("security/refresh"), contentTypeJSON, refresh, "", nil, &out)
	observability.Auth().OnRefresh(ctx, c.host, err)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.accessToken = out.AccessToken
	c.mu.Unlock()

	if c.useCSRF {
		return c.fetchCSRF(ctx)
	}
	return nil
}

// reauthenticate recovers from an expired access token: refresh when a
// refresh token is held, full login otherwise.
func (c *Client) reauthenticate(ctx context.Context) error {
	if err := c.Refresh(ctx); err == nil {
		return nil
	}
	return c.Authenticate(ctx)
}

// Me returns the account associated with the current tokens. Never
// cached, so it doubles as a liveness probe for stored sessions.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		Result User `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, c.apiURL("me/"), contentTypeJSON, nil, &out); err != nil {
		return nil, err
	}
	return &out.Result, nil
}

// NewFromSession builds a client that resumes a persisted login. The
// session's host and username fill in whatever the config leaves
// empty, so a bare Config{} works.
func NewFromSession(cfg Config, sess *session.Session) (*Client, error) {
	if sess == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "no stored session to resume")
	}
	if sess.IsExpired() {
		return nil, errors.New(errors.ErrCodeSessionExpired, "stored session for %s has expired", sess.Host)
	}

	if cfg.Host == "" {
		cfg.Host = sess.Host
	}
	if cfg.Username == "" {
		cfg.Username = sess.Username
	}

	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	c.accessToken = sess.AccessToken
	c.refreshToken = sess.RefreshToken

	return c, nil
}

// Session exports the current tokens as a persistable session for the
// given profile. Returns nil when the client never authenticated.
func (c *Client) Session(profile string) *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken == "" {
		return nil
	}
	return session.New(profile, c.host, c.username, c.accessToken, c.refreshToken, session.DefaultTTL)
}
