package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/http/cookiejar"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/config"
	apphttp "github.com/geocoder89/todohub/internal/http"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/geocoder89/todohub/internal/repo/memory"
	"github.com/geocoder89/todohub/internal/security"
	"github.com/geocoder89/todohub/internal/service"
)

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		SessionCookieName:  "sid",
		SessionSecret:      "test-secret-key",
		SessionTTL:         time.Hour,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		MaxBodyBytes:       1 << 20,
	}
}

// newServer wires the full stack on the in-memory stores.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	sessions := auth.NewManager(memory.NewSessionsRepo(), cfg.SessionSecret, cfg.SessionTTL)
	authSvc, err := service.NewAuthService(memory.NewUsersRepo(), security.NewHasher(bcrypt.MinCost), sessions, logger)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	authSvc.WithMetrics(prom)
	taskSvc := service.NewTaskService(memory.NewTasksRepo())

	router := apphttp.NewRouter(apphttp.Deps{
		Config:   cfg,
		Logger:   logger,
		Auth:     authSvc,
		Tasks:    taskSvc,
		Sessions: sessions,
		Prom:     prom,
		Gatherer: reg,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.base+path, rdr)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}

	return resp, out
}

func (c *client) register(username, password string) *http.Response {
	c.t.Helper()
	resp, _ := c.do(http.MethodPost, "/auth/register", map[string]string{
		"username":        username,
		"password":        password,
		"confirmPassword": password,
	})
	return resp
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()

	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode error envelope: %v body=%s", err, body)
	}
	return env.Error.Code
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	if resp := c.register("alice", "secret1"); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: got %d", resp.StatusCode)
	}

	resp, body := c.do(http.MethodGet, "/auth/me", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"username":"alice"`) {
		t.Fatalf("me after register: %d %s", resp.StatusCode, body)
	}

	resp, _ = c.do(http.MethodPost, "/auth/logout", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: got %d", resp.StatusCode)
	}

	resp, body = c.do(http.MethodGet, "/tasks", nil)
	if resp.StatusCode != http.StatusUnauthorized || errorCode(t, body) != "unauthenticated" {
		t.Fatalf("tasks after logout: %d %s", resp.StatusCode, body)
	}

	resp, _ = c.do(http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "secret1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: got %d", resp.StatusCode)
	}

	resp, _ = c.do(http.MethodGet, "/tasks", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tasks after login: got %d", resp.StatusCode)
	}
}

func TestLogoutRevokesStolenCookie(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	resp := c.register("alice", "secret1")
	var sid *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "sid" {
			sid = ck
		}
	}
	if sid == nil {
		t.Fatalf("no sid cookie on register")
	}

	c.do(http.MethodPost, "/auth/logout", nil)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/tasks", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid.Value})
	replay, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	replay.Body.Close()

	if replay.StatusCode != http.StatusUnauthorized {
		t.Fatalf("replayed cookie after logout: got %d", replay.StatusCode)
	}
}

func TestRegisterDuplicateAndBadLogin(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	c.register("alice", "secret1")

	resp, body := c.do(http.MethodPost, "/auth/register", map[string]string{
		"username": "alice", "password": "another1", "confirmPassword": "another1",
	})
	if resp.StatusCode != http.StatusConflict || errorCode(t, body) != "username_exists" {
		t.Fatalf("duplicate: %d %s", resp.StatusCode, body)
	}

	_, wrongPw := c.do(http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "another1"})
	_, noUser := c.do(http.MethodPost, "/auth/login", map[string]string{"username": "nobody", "password": "another1"})

	if errorCode(t, wrongPw) != "invalid_credentials" || errorCode(t, noUser) != "invalid_credentials" {
		t.Fatalf("login failures should be indistinguishable: %s vs %s", wrongPw, noUser)
	}
}

type taskBody struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	OwnerID  string `json:"ownerId"`
}

// alice creates "Buy milk"; bob sees none of it.
func TestTaskIsolationBetweenUsers(t *testing.T) {
	srv := newServer(t)
	alice := newClient(t, srv)
	bob := newClient(t, srv)

	alice.register("alice", "secret1")
	bob.register("bob", "secret2")

	resp, body := alice.do(http.MethodPost, "/tasks", map[string]string{"title": "Buy milk", "priority": "high"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}

	var milk taskBody
	if err := json.Unmarshal(body, &milk); err != nil {
		t.Fatal(err)
	}
	if milk.Status != "pending" || milk.Priority != "high" {
		t.Fatalf("defaults not applied: %+v", milk)
	}

	_, body = bob.do(http.MethodGet, "/tasks", nil)
	if !strings.Contains(string(body), `"count":0`) {
		t.Fatalf("bob sees alice's tasks: %s", body)
	}

	for _, tc := range []struct {
		method string
		body   any
	}{
		{http.MethodGet, nil},
		{http.MethodPut, map[string]string{"status": "completed"}},
		{http.MethodDelete, nil},
	} {
		resp, body := bob.do(tc.method, "/tasks/"+milk.ID, tc.body)
		if resp.StatusCode != http.StatusNotFound || errorCode(t, body) != "not_found" {
			t.Fatalf("bob %s: %d %s", tc.method, resp.StatusCode, body)
		}
	}

	resp, body = alice.do(http.MethodGet, "/tasks/"+milk.ID, nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"status":"pending"`) {
		t.Fatalf("alice's task changed: %d %s", resp.StatusCode, body)
	}

	resp, body = alice.do(http.MethodPut, "/tasks/"+milk.ID, map[string]string{"status": "completed"})
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"status":"completed"`) {
		t.Fatalf("alice update: %d %s", resp.StatusCode, body)
	}

	resp, _ = alice.do(http.MethodDelete, "/tasks/"+milk.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("alice delete: %d", resp.StatusCode)
	}
}

func TestRegisterValidationEnvelope(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	resp, body := c.do(http.MethodPost, "/auth/register", map[string]string{
		"username": "al", "password": "secret1", "confirmPassword": "secret1",
	})

	if resp.StatusCode != http.StatusBadRequest || errorCode(t, body) != "username_too_short" {
		t.Fatalf("got %d %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), `"formData":{"username":"al"}`) {
		t.Fatalf("username not preserved: %s", body)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	c.register("alice", "secret1")

	resp, body := c.do(http.MethodGet, "/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `todohub_auth_attempts_total{op="register",result="ok"} 1`) {
		t.Fatalf("auth counter missing:\n%s", body)
	}
}
