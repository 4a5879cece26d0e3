package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var otpRe = regexp.MustCompile(`Your OTP is: (\d{6})`)

type successEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
}

// outbox collects console emails written by concurrent requests.
type outbox struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (o *outbox) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.Write(p)
}

func (o *outbox) lastCode(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()

	matches := otpRe.FindAllStringSubmatch(o.buf.String(), -1)
	if len(matches) == 0 {
		t.Fatalf("no otp in outbox: %q", o.buf.String())
	}
	return matches[len(matches)-1][1]
}

type client struct {
	base string
	http *http.Client
}

func newClient(t *testing.T, base string) *client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return &client{
		base: base,
		http: &http.Client{
			Timeout: 5 * time.Second,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *client) do(t *testing.T, method, path string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, raw
}

func (c *client) json(t *testing.T, method, path string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			t.Fatalf("encode json: %v", err)
		}
		body = buf
	}

	resp, raw := c.do(t, method, path, body, "application/json")
	return resp.StatusCode, raw
}

func (c *client) form(t *testing.T, path string, values url.Values) (int, []byte) {
	t.Helper()

	resp, raw := c.do(t, http.MethodPost, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
	return resp.StatusCode, raw
}

func decodeSuccess(t *testing.T, body []byte, out any) successEnvelope {
	t.Helper()

	var env successEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode success envelope: %v (%s)", err, body)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode success data: %v", err)
		}
	}

	return env
}

func decodeError(t *testing.T, body []byte) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, body)
	}

	return env
}

func startApp(t *testing.T) (string, *outbox) {
	t.Helper()

	t.Setenv("CONFIG_PATH", t.TempDir()+"/missing.yaml")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("MAIL_SERVER", "")
	t.Setenv("HASH_BCRYPT_COST", "4")
	t.Setenv("OTP_EXPIRY_SECONDS", "120")
	t.Setenv("MAX_OTP_ATTEMPTS", "3")

	box := &outbox{}
	a := newApp(box)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	a.Serve(l)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Stop(ctx)
	})

	return "http://" + l.Addr().String(), box
}

func TestApp_LoginFlow(t *testing.T) {
	base, box := startApp(t)
	c := newClient(t, base)

	status, body := c.json(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = c.json(t, http.MethodPost, "/api/v1/identity/register", map[string]string{
		"username": "alice",
		"email":    "Alice@Example.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, "Registered. Please login.", decodeSuccess(t, body, nil).Message)

	status, body = c.json(t, http.MethodPost, "/api/v1/identity/register", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Username or email already exists", decodeError(t, body).Message)

	status, body = c.form(t, "/api/v1/identity/verify", url.Values{"otp": {"123456"}})
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Start login first.", decodeError(t, body).Message)

	status, body = c.form(t, "/api/v1/identity/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid username or password", decodeError(t, body).Message)

	status, body = c.form(t, "/api/v1/identity/login", url.Values{"username": {"alice"}, "password": {"pw123"}})
	require.Equal(t, http.StatusOK, status, string(body))
	var login struct {
		Next    string `json:"next"`
		OTPSent bool   `json:"otp_sent"`
	}
	assert.Equal(t, "OTP sent to your email (or printed to console).", decodeSuccess(t, body, &login).Message)
	assert.Equal(t, "verify", login.Next)
	assert.True(t, login.OTPSent)

	code := box.lastCode(t)
	wrong := "123456"
	if code == wrong {
		wrong = "654321"
	}

	status, body = c.json(t, http.MethodPost, "/api/v1/identity/verify", map[string]string{"otp": wrong})
	require.Equal(t, http.StatusUnauthorized, status)
	errEnv := decodeError(t, body)
	assert.Equal(t, "Wrong OTP. Try again.", errEnv.Message)
	assert.Equal(t, map[string]string{"next": "verify", "attempts_remaining": "2"}, errEnv.Error)

	status, body = c.json(t, http.MethodPost, "/api/v1/identity/verify", map[string]string{"otp": code})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "Login successful!", decodeSuccess(t, body, nil).Message)

	status, body = c.json(t, http.MethodGet, "/api/v1/identity/dashboard", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var dash struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	assert.Equal(t, "Hello, alice", decodeSuccess(t, body, &dash).Message)
	assert.Equal(t, "alice@example.com", dash.Email)

	resp, _ := c.do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/api/v1/identity/dashboard", resp.Header.Get("Location"))

	status, body = c.json(t, http.MethodPost, "/api/v1/identity/logout", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "Logged out.", decodeSuccess(t, body, nil).Message)

	status, body = c.json(t, http.MethodGet, "/api/v1/identity/dashboard", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Login first.", decodeError(t, body).Message)

	resp, _ = c.do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, "/api/v1/identity/login", resp.Header.Get("Location"))
}

func TestApp_AttemptsExhausted(t *testing.T) {
	base, box := startApp(t)
	c := newClient(t, base)

	status, body := c.json(t, http.MethodPost, "/api/v1/identity/register", map[string]string{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = c.json(t, http.MethodPost, "/api/v1/identity/login", map[string]string{"username": "bob", "password": "pw123"})
	require.Equal(t, http.StatusOK, status, string(body))

	code := box.lastCode(t)
	wrong := "123456"
	if code == wrong {
		wrong = "654321"
	}

	for range 3 {
		status, _ = c.json(t, http.MethodPost, "/api/v1/identity/verify", map[string]string{"otp": wrong})
		require.Equal(t, http.StatusUnauthorized, status)
	}

	status, body = c.json(t, http.MethodPost, "/api/v1/identity/verify", map[string]string{"otp": code})
	require.Equal(t, http.StatusTooManyRequests, status)
	errEnv := decodeError(t, body)
	assert.Equal(t, "Too many wrong attempts. Please login again.", errEnv.Message)
	assert.Equal(t, "login", errEnv.Error["next"])

	status, body = c.json(t, http.MethodPost, "/api/v1/identity/verify", map[string]string{"otp": code})
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Start login first.", decodeError(t, body).Message)
}

func TestApp_SessionsAreIsolated(t *testing.T) {
	base, box := startApp(t)
	alice := newClient(t, base)
	mallory := newClient(t, base)

	status, body := alice.json(t, http.MethodPost, "/api/v1/identity/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, _ = alice.json(t, http.MethodPost, "/api/v1/identity/login", map[string]string{"username": "alice", "password": "pw123"})
	require.Equal(t, http.StatusOK, status)

	status, body = mallory.json(t, http.MethodPost, "/api/v1/identity/verify", map[string]string{"otp": box.lastCode(t)})
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Start login first.", decodeError(t, body).Message)
}
