package superset

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dashforge/supergrid/pkg/cache"
	"github.com/dashforge/supergrid/pkg/errors"
	"github.com/dashforge/supergrid/pkg/httputil"
	"github.com/dashforge/supergrid/pkg/observability"
)

const (
	// DefaultProvider is the Superset authentication provider used when
	// Config.Provider is empty. "ldap" is the common alternative.
	DefaultProvider = "db"

	// DefaultTimeout bounds a single request round trip.
	DefaultTimeout = 20 * time.Second

	retryAttempts  = 3
	retryBaseDelay = 500 * time.Millisecond
)

// Config holds the connection settings for a Superset host.
type Config struct {
	// Host is the base URL of the Superset instance, e.g.
	// https://superset.example.com. Required.
	Host string

	Username string
	Password string

	// Provider selects the Superset auth provider ("db" or "ldap").
	// Defaults to "db".
	Provider string

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification, for
	// hosts with self-signed certificates.
	InsecureSkipVerify bool

	// DisableCSRF skips the CSRF token exchange for deployments that
	// run with CSRF protection turned off.
	DisableCSRF bool

	// Cache stores GET responses. Nil disables response caching.
	Cache cache.Cache

	// Keyer derives cache keys. Defaults to cache.DefaultKeyer.
	Keyer cache.Keyer

	// CacheTTL bounds how long cached GET responses are served.
	CacheTTL time.Duration
}

// Client talks to one Superset host. All methods are safe for
// concurrent use.
type Client struct {
	http  *http.Client
	cache cache.Cache
	keyer cache.Keyer

	host     string // normalized, no trailing slash
	apiBase  string // host + "/api/v1"
	username string
	password string
	provider string
	cacheTTL time.Duration
	useCSRF  bool

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	csrfToken    string

	Dashboards   *DashboardService
	Charts       *ChartService
	Datasets     *DatasetService
	Databases    *DatabaseService
	SavedQueries *SavedQueryService
}

// New creates a client for the given host. No request is made until the
// first call; authentication happens lazily.
func New(cfg Config) (*Client, error) {
	if err := errors.ValidateURL(cfg.Host); err != nil {
		return nil, err
	}

	provider := cfg.Provider
	if provider == "" {
		provider = DefaultProvider
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	store := cfg.Cache
	if store == nil {
		store = cache.NewNullCache()
	}
	keyer := cfg.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}

	host := strings.TrimRight(cfg.Host, "/")
	c := &Client{
		http:     httpClient,
		cache:    store,
		keyer:    keyer,
		host:     host,
		apiBase:  host + "/api/v1",
		username: cfg.Username,
		password: cfg.Password,
		provider: provider,
		cacheTTL: cfg.CacheTTL,
		useCSRF:  !cfg.DisableCSRF,
	}

	c.Dashboards = &DashboardService{service{client: c, endpoint: "dashboard"}}
	c.Charts = &ChartService{service{client: c, endpoint: "chart"}}
	c.Datasets = &DatasetService{service{client: c, endpoint: "dataset"}}
	c.Databases = &DatabaseService{service{client: c, endpoint: "database"}}
	c.SavedQueries = &SavedQueryService{service{client: c, endpoint: "saved_query"}}
	return c, nil
}

// Host returns the normalized base URL of the Superset instance.
func (c *Client) Host() string { return c.host }

// Close releases the response cache.
func (c *Client) Close() error {
	return c.cache.Close()
}

// apiURL joins path segments onto the api/v1 base. A trailing slash on
// the last segment is preserved, matching how Superset registers its
// routes.
func (c *Client) apiURL(parts ...string) string {
	return joinURL(append([]string{c.apiBase}, parts...)...)
}

func joinURL(parts ...string) string {
	trimmed := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		trimmed = append(trimmed, strings.Trim(p, "/"))
	}
	if strings.HasSuffix(parts[len(parts)-1], "/") {
		trimmed = append(trimmed, "")
	}
	return strings.Join(trimmed, "/")
}

// tokens snapshots the current access and CSRF tokens.
func (c *Client) tokens() (access, csrf string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.csrfToken
}

// get performs a cached GET. The namespace groups cache entries by
// resource so different services never collide.
func (c *Client) get(ctx context.Context, namespace, url string, out any) error {
	if c.cacheTTL <= 0 {
		return c.do(ctx, http.MethodGet, url, contentTypeJSON, nil, out)
	}

	key := c.keyer.RequestKey(namespace, url)
	hooks := observability.Cache()
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, namespace)
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err == nil {
			return nil
		}
		// Undecodable entry, fall through to a fresh fetch.
	}
	hooks.OnCacheMiss(ctx, namespace)

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, url, contentTypeJSON, nil, &raw); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, key, raw, c.cacheTTL); err == nil {
		hooks.OnCacheSet(ctx, namespace, len(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(errors.ErrCodeSerialization, err, "failed to decode response from %s", url)
	}
	return nil
}

// uncache drops the cache entry for one GET URL, used after a mutation
// so the next read does not serve the stale resource.
func (c *Client) uncache(ctx context.Context, namespace, url string) {
	if c.cacheTTL > 0 {
		_ = c.cache.Delete(ctx, c.keyer.RequestKey(namespace, url))
	}
}

const contentTypeJSON = "application/json"

func (c *Client) post(ctx context.Context, url string, in, out any) error {
	body, err := encodeBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, url, contentTypeJSON, body, out)
}

func (c *Client) put(ctx context.Context, url string, in, out any) error {
	body, err := encodeBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, url, contentTypeJSON, body, out)
}

func (c *Client) del(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodDelete, url, contentTypeJSON, nil, out)
}

// postMultipart sends an already-encoded multipart body, used by the
// import endpoints.
func (c *Client) postMultipart(ctx context.Context, url, contentType string, body []byte, out any) error {
	return c.do(ctx, http.MethodPost, url, contentType, body, out)
}

func encodeBody(in any) ([]byte, error) {
	if in == nil {
		return nil, nil
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerialization, err, "failed to encode request body")
	}
	return body, nil
}

// do sends one request with retry and a single 401
// refresh-and-replay.
func (c *Client) do(ctx context.Context, method, url, contentType string, body []byte, out any) error {
	if err := c.ensureAuth(ctx); err != nil {
		return err
	}

	access, csrf := c.tokens()
	err := c.doRetry(ctx, method, url, contentType, access, csrf, body, out)
	if !errors.Is(err, errors.ErrCodeUnauthorized) {
		return err
	}

	// The access token expired mid-flight. Refresh (or re-login) once
	// and replay the request.
	observability.Auth().OnSessionExpired(ctx, c.host)
	if err := c.reauthenticate(ctx); err != nil {
		return err
	}
	access, csrf = c.tokens()
	return c.doRetry(ctx, method, url, contentType, access, csrf, body, out)
}

// doRetry wraps doOnce in the retry policy: 3 attempts, backoff
// doubling from 500ms, Retry-After override on 429.
func (c *Client) doRetry(ctx context.Context, method, url, contentType, bearer, csrf string, body []byte, out any) error {
	attempt := 0
	return httputil.Retry(ctx, retryAttempts, retryBaseDelay, func() error {
		attempt++
		if attempt > 1 {
			wait := retryBaseDelay << (attempt - 2)
			observability.HTTP().OnRetry(ctx, method, c.host, strings.TrimPrefix(url, c.host), attempt, wait)
		}
		return c.doOnce(ctx, method, url, contentType, bearer, csrf, body, out)
	})
}

func (c *Client) doOnce(ctx context.Context, method, url, contentType, bearer, csrf string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to build request for %s", url)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if csrf != "" && method != http.MethodGet {
		req.Header.Set("X-CSRFToken", csrf)
		req.Header.Set("Referer", c.host)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, req.URL.Host, req.URL.Path, err)
		return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "request to %s failed", url))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "failed to read response from %s", url))
	}
	hooks.OnResponse(ctx, method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, resp.Header, data); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(errors.ErrCodeSerialization, err, "failed to decode response from %s", url)
	}
	return nil
}

// getRaw fetches a response body without JSON decoding, for export
// endpoints that return zip or yaml payloads. Not cached.
func (c *Client) getRaw(ctx context.Context, url string) ([]byte, string, error) {
	if err := c.ensureAuth(ctx); err != nil {
		return nil, "", err
	}

	var data []byte
	var contentType string
	err := httputil.Retry(ctx, retryAttempts, retryBaseDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "failed to build request for %s", url)
		}
		access, _ := c.tokens()
		req.Header.Set("Authorization", "Bearer "+access)

		resp, err := c.http.Do(req)
		if err != nil {
			return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "request to %s failed", url))
		}
		defer resp.Body.Close()

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "failed to read response from %s", url))
		}
		contentType = resp.Header.Get("Content-Type")
		return checkStatus(resp.StatusCode, resp.Header, data)
	})
	return data, contentType, err
}

// checkStatus maps Superset HTTP statuses onto coded errors. 5xx and
// 429 responses come back retryable; 429 carries the server's
// Retry-After hint so the backoff can honor it.
func checkStatus(code int, header http.Header, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusBadRequest:
		return errors.New(errors.ErrCodeBadRequest, "bad request: %s", apiMessage(body))
	case code == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "authentication required or token expired")
	case code == http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden, "access denied: %s", apiMessage(body))
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "resource not found")
	case code == http.StatusUnprocessableEntity:
		return errors.New(errors.ErrCodeInvalidInput, "unprocessable request: %s", apiMessage(body))
	case code == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(header)
		rateErr := &errors.RateLimitedError{RetryAfter: int(retryAfter / time.Second)}
		return &httputil.RetryableError{
			Err:        errors.Wrap(errors.ErrCodeRateLimited, rateErr, "rate limited by server"),
			RetryAfter: retryAfter,
		}
	case code >= 500:
		// Includes 520, the non-standard Cloudflare origin error.
		return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "server error: status %d", code))
	default:
		return errors.New(errors.ErrCodeNetwork, "unexpected status %d: %s", code, apiMessage(body))
	}
}

func parseRetryAfter(header http.Header) time.Duration {
	// Superset fronts commonly send Retry-After in seconds; default to
	// a minute like the web UI does.
	if s := header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Minute
}

// apiMessage digs a human-readable message out of an error response
// body. Superset replies with either {"message": ...} or a list under
// {"errors": [{"message": ...}]}.
func apiMessage(body []byte) string {
	var envelope struct {
		Message json.RawMessage `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return strings.TrimSpace(string(body))
	}

	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			if e.Message != "" {
				msgs = append(msgs, e.Message)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	if len(envelope.Message) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Message, &s); err == nil {
			return s
		}
		// Field validation errors arrive as an object keyed by field.
		return string(envelope.Message)
	}
	return fmt.Sprintf("no detail (%d bytes)", len(body))
}
