package superset

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dashforge/supergrid/pkg/cache"
	"github.com/dashforge/supergrid/pkg/errors"
	"github.com/dashforge/supergrid/pkg/httputil"
	"github.com/dashforge/supergrid/pkg/session"
)

// testHandler serves the auth endpoints and delegates everything else
// to api, so tests only describe the resource traffic they care about.
func testHandler(api http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/security/login":
			json.NewEncoder(w).Encode(map[string]string{
				"access_token":  "access-1",
				"refresh_token": "refresh-1",
			})
		case "/api/v1/security/csrf_token/":
			json.NewEncoder(w).Encode(map[string]string{"result": "csrf-1"})
		default:
			api(w, r)
		}
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{Host: server.URL, Username: "admin", Password: "secret"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return client
}

func TestNew(t *testing.T) {
	client, err := New(Config{Host: "http://superset.example.com/"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if client.Host() != "http://superset.example.com" {
		t.Errorf("Host() = %q, want trailing slash trimmed", client.Host())
	}
	if client.provider != DefaultProvider {
		t.Errorf("provider = %q, want %q", client.provider, DefaultProvider)
	}
	if client.Dashboards == nil || client.Charts == nil || client.Datasets == nil ||
		client.Databases == nil || client.SavedQueries == nil {
		t.Error("New() left a service nil")
	}
}

func TestNewRejectsBadHost(t *testing.T) {
	_, err := New(Config{Host: "not a url"})
	if err == nil {
		t.Fatal("New() should reject an unparseable host")
	}
}

func TestAuthenticateSendsCredentials(t *testing.T) {
	var login struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Provider string `json:"provider"`
		Refresh  bool   `json:"refresh"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/security/login":
			json.NewDecoder(r.Body).Decode(&login)
			json.NewEncoder(w).Encode(map[string]string{
				"access_token":  "access-1",
				"refresh_token": "refresh-1",
			})
		case "/api/v1/security/csrf_token/":
			json.NewEncoder(w).Encode(map[string]string{"result": "csrf-1"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := New(Config{Host: server.URL, Username: "admin", Password: "secret"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := client.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}

	if login.Username != "admin" || login.Password != "secret" {
		t.Errorf("login sent %q/%q, want admin/secret", login.Username, login.Password)
	}
	if login.Provider != "db" {
		t.Errorf("login provider = %q, want db", login.Provider)
	}
	if !login.Refresh {
		t.Error("login should request a refresh token")
	}
	if client.accessToken != "access-1" || client.refreshToken != "refresh-1" {
		t.Errorf("tokens = %q/%q, want access-1/refresh-1", client.accessToken, client.refreshToken)
	}
	if client.csrfToken != "csrf-1" {
		t.Errorf("csrf token = %q, want csrf-1", client.csrfToken)
	}
}

func TestAuthenticateWithoutCredentials(t *testing.T) {
	client, err := New(Config{Host: "http://superset.example.com"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	err = client.Authenticate(context.Background())
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Authenticate() error = %v, want INVALID_CONFIG", err)
	}
}

func TestRequestHeaders(t *testing.T) {
	type captured struct {
		auth, csrf, referer string
	}
	var get, post captured

	client := newTestClient(t, testHandler(func(w http.ResponseWriter, r *http.Request) {
		c := captured{
			auth:    r.Header.Get("Authorization"),
			csrf:    r.Header.Get("X-CSRFToken"),
			referer: r.Header.Get("Referer"),
		}
		if r.Method == http.MethodGet {
			get = c
		} else {
			post = c
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 1})
	}))

	ctx := context.Background()
	if err := client.get(ctx, "dashboard", client.apiURL("dashboard", "1"), nil); err != nil {
		t.Fatalf("get() error: %v", err)
	}
	if err := client.post(ctx, client.apiURL("dashboard/"), map[string]string{"dashboard_title": "x"}, nil); err != nil {
		t.Fatalf("post() error: %v", err)
	}

	if get.auth != "Bearer access-1" {
		t.Errorf("GET Authorization = %q, want Bearer access-1", get.auth)
	}
	if get.csrf != "" {
		t.Error("GET should not carry a CSRF token")
	}
	if post.csrf != "csrf-1" {
		t.Errorf("POST X-CSRFToken = %q, want csrf-1", post.csrf)
	}
	if post.referer != client.Host() {
		t.Errorf("POST Referer = %q, want %q", post.referer, client.Host())
	}
}

func TestDisableCSRF(t *testing.T) {
	csrfCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/security/login":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "access-1"})
		case "/api/v1/security/csrf_token/":
			csrfCalls++
			json.NewEncoder(w).Encode(map[string]string{"result": "csrf-1"})
		default:
			json.NewEncoder(w).Encode(map[string]any{})
		}
	}))
	defer server.Close()

	client, err := New(Config{Host: server.URL, Username: "admin", Password: "secret", DisableCSRF: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := client.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if csrfCalls != 0 {
		t.Errorf("csrf endpoint called %d times, want 0", csrfCalls)
	}
}

func TestUnauthorizedTriggersRefreshAndReplay(t *testing.T) {
	dashboardCalls := 0
	refreshCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/security/login":
			json.NewEncoder(w).Encode(map[string]string{
				"access_token":  "access-1",
				"refresh_token": "refresh-1",
			})
		case "/api/v1/security/csrf_token/":
			json.NewEncoder(w).Encode(map[string]string{"result": "csrf-1"})
		case "/api/v1/security/refresh":
			refreshCalls++
			if got := r.Header.Get("Authorization"); got != "Bearer refresh-1" {
				t.Errorf("refresh Authorization = %q, want Bearer refresh-1", got)
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "access-2"})
		case "/api/v1/dashboard/7":
			dashboardCalls++
			if dashboardCalls == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id":     7,
				"result": map[string]any{"dashboard_title": "Sales"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := New(Config{Host: server.URL, Username: "admin", Password: "secret"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	d, err := client.Dashboards.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if d.DashboardTitle != "Sales" {
		t.Errorf("DashboardTitle = %q, want Sales", d.DashboardTitle)
	}
	if refreshCalls != 1 {
		t.Errorf("refresh called %d times, want 1", refreshCalls)
	}
	if dashboardCalls != 2 {
		t.Errorf("dashboard fetched %d times, want 2 (replay after refresh)", dashboardCalls)
	}
	if client.accessToken != "access-2" {
		t.Errorf("access token = %q, want refreshed access-2", client.accessToken)
	}
}

func TestRefreshWithoutToken(t *testing.T) {
	client, err := New(Config{Host: "http://superset.example.com"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	err = client.Refresh(context.Background())
	if !errors.Is(err, errors.ErrCodeSessionExpired) {
		t.Errorf("Refresh() error = %v, want SESSION_EXPIRED", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	calls := 0
	client := newTestClient(t, testHandler(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"count": 3})
	}))

	count, err := client.Dashboards.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
	if calls != 2 {
		t.Errorf("server called %d times, want 2", calls)
	}
}

func TestGetCaching(t *testing.T) {
	calls := 0
	server := httptest.NewServer(testHandler(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{"count": calls})
	}))
	defer server.Close()

	client, err := New(Config{
		Host:     server.URL,
		Username: "admin",
		Password: "secret",
		Cache:    cache.NewMemoryCache(),
		CacheTTL: time.Minute,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	for range 3 {
		count, err := client.Dashboards.Count(ctx)
		if err != nil {
			t.Fatalf("Count() error: %v", err)
		}
		if count != 1 {
			t.Errorf("Count() = %d, want cached 1", count)
		}
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1", calls)
	}

	// Dropping the entry forces a fresh fetch.
	client.uncache(ctx, "dashboard", client.Dashboards.listURL())
	if _, err := client.Dashboards.Count(ctx); err != nil {
		t.Fatalf("Count() after uncache error: %v", err)
	}
	if calls != 2 {
		t.Errorf("server called %d times after uncache, want 2", calls)
	}
}

func TestMe(t *testing.T) {
	client := newTestClient(t, testHandler(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/me/" {
			t.Errorf("path = %q, want /api/v1/me/", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"id": 4, "username": "admin", "first_name": "Ada"},
		})
	}))

	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if user.ID != 4 || user.Username != "admin" || user.FirstName != "Ada" {
		t.Errorf("Me() = %+v, want id 4 username admin first name Ada", user)
	}
}

func TestNewFromSession(t *testing.T) {
	sess := session.New("prod", "http://superset.example.com", "admin", "access-9", "refresh-9", time.Hour)

	client, err := NewFromSession(Config{}, sess)
	if err != nil {
		t.Fatalf("NewFromSession() error: %v", err)
	}
	if client.Host() != "http://superset.example.com" {
		t.Errorf("Host() = %q, want session host", client.Host())
	}
	if client.accessToken != "access-9" || client.refreshToken != "refresh-9" {
		t.Errorf("tokens = %q/%q, want access-9/refresh-9", client.accessToken, client.refreshToken)
	}

	// And back out again.
	got := client.Session("prod")
	if got == nil {
		t.Fatal("Session() returned nil for an authenticated client")
	}
	if got.AccessToken != "access-9" || got.Username != "admin" {
		t.Errorf("Session() = %+v, want preserved tokens and username", got)
	}
}

func TestNewFromSessionExpired(t *testing.T) {
	sess := session.New("prod", "http://superset.example.com", "admin", "a", "r", -time.Hour)
	_, err := NewFromSession(Config{}, sess)
	if !errors.Is(err, errors.ErrCodeSessionExpired) {
		t.Errorf("NewFromSession() error = %v, want SESSION_EXPIRED", err)
	}

	_, err = NewFromSession(Config{}, nil)
	if !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("NewFromSession(nil) error = %v, want SESSION_NOT_FOUND", err)
	}
}

func TestSessionWithoutAuth(t *testing.T) {
	client, err := New(Config{Host: "http://superset.example.com"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := client.Session("prod"); got != nil {
		t.Errorf("Session() = %+v, want nil before authentication", got)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		header    http.Header
		body      string
		wantCode  errors.Code
		retryable bool
	}{
		{name: "ok", status: 200},
		{name: "created", status: 201},
		{name: "bad request", status: 400, body: `{"message":"boom"}`, wantCode: errors.ErrCodeBadRequest},
		{name: "unauthorized", status: 401, wantCode: errors.ErrCodeUnauthorized},
		{name: "forbidden", status: 403, wantCode: errors.ErrCodeForbidden},
		{name: "not found", status: 404, wantCode: errors.ErrCodeNotFound},
		{name: "unprocessable", status: 422, body: `{"message":{"slug":["taken"]}}`, wantCode: errors.ErrCodeInvalidInput},
		{name: "rate limited", status: 429, header: http.Header{"Retry-After": {"5"}}, wantCode: errors.ErrCodeRateLimited, retryable: true},
		{name: "server error", status: 500, wantCode: errors.ErrCodeNetwork, retryable: true},
		{name: "bad gateway", status: 502, wantCode: errors.ErrCodeNetwork, retryable: true},
		{name: "cloudflare origin error", status: 520, wantCode: errors.ErrCodeNetwork, retryable: true},
		{name: "teapot", status: 418, wantCode: errors.ErrCodeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStatus(tt.status, tt.header, []byte(tt.body))
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("checkStatus(%d) error: %v", tt.status, err)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("checkStatus(%d) error = %v, want code %s", tt.status, err, tt.wantCode)
			}
			var retryErr *httputil.RetryableError
			if got := stderrors.As(err, &retryErr); got != tt.retryable {
				t.Errorf("checkStatus(%d) retryable = %v, want %v", tt.status, got, tt.retryable)
			}
		})
	}
}

func TestCheckStatusRetryAfter(t *testing.T) {
	header := http.Header{"Retry-After": {"5"}}
	err := checkStatus(429, header, nil)

	var retryErr *httputil.RetryableError
	if !stderrors.As(err, &retryErr) {
		t.Fatalf("checkStatus(429) error = %T, want RetryableError", err)
	}
	if retryErr.RetryAfter != 5*time.Second {
		t.Errorf("RetryAfter = %v, want 5s", retryErr.RetryAfter)
	}

	var rateErr *errors.RateLimitedError
	if !stderrors.As(err, &rateErr) {
		t.Fatalf("checkStatus(429) should carry a RateLimitedError")
	}
	if rateErr.RetryAfter != 5 {
		t.Errorf("RateLimitedError.RetryAfter = %d, want 5", rateErr.RetryAfter)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"5", 5 * time.Second},
		{"", time.Minute},
		{"soon", time.Minute},
		{"-3", time.Minute},
	}
	for _, tt := range tests {
		header := http.Header{}
		if tt.value != "" {
			header.Set("Retry-After", tt.value)
		}
		if got := parseRetryAfter(header); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestAPIMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain message", `{"message":"boom"}`, "boom"},
		{"error list", `{"errors":[{"message":"first"},{"message":"second"}]}`, "first; second"},
		{"field validation", `{"message":{"slug":["already taken"]}}`, `{"slug":["already taken"]}`},
		{"not json", "<html>502</html>", "<html>502</html>"},
		{"empty", "", "no detail (0 bytes)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apiMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("apiMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"http://h", "api/v1", "dashboard/"}, "http://h/api/v1/dashboard/"},
		{[]string{"http://h/", "/api/v1/", "dashboard", "1"}, "http://h/api/v1/dashboard/1"},
		{[]string{"http://h", "superset/sql_json/"}, "http://h/superset/sql_json/"},
		{[]string{"http://h", "api/v1", "dashboard", "_info"}, "http://h/api/v1/dashboard/_info"},
	}
	for _, tt := range tests {
		if got := joinURL(tt.parts...); got != tt.want {
			t.Errorf("joinURL(%v) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}
