package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	sharedaudit "github.com/joshuarp/liveconfig/internal/shared/audit"
	sharedconfig "github.com/joshuarp/liveconfig/internal/shared/config"
	sharedhash "github.com/joshuarp/liveconfig/internal/shared/hash"
	"github.com/joshuarp/liveconfig/internal/shared/hotload"
	sharedidentity "github.com/joshuarp/liveconfig/internal/shared/identity"
	sharedjwt "github.com/joshuarp/liveconfig/internal/shared/jwt"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func performJSONRequest(app *fiber.App, method, path string, body []byte) (*http.Response, map[string]interface{}, []byte) {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if len(body) > 0 {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req)
	if err != nil {
		return nil, nil, nil
	}

	defer resp.Body.Close()
	rawBody, _ := io.ReadAll(resp.Body)
	parsed := map[string]interface{}{}
	_ = json.Unmarshal(rawBody, &parsed)

	return resp, parsed, rawBody
}

type fakeRecorder struct {
	entries []sharedaudit.Entry
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, entry sharedaudit.Entry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeRecorder) Recent(_ context.Context, limit int) ([]sharedaudit.Entry, error) {
	if r.err != nil {
		return nil, r.err
	}
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	return r.entries[:limit], nil
}

type fakeHasher struct {
	digest string
	err    error
}

func (h *fakeHasher) Hash(_ context.Context, _ string) (string, error) {
	return h.digest, h.err
}

func (h *fakeHasher) Compare(_ context.Context, _, _ string) error {
	return h.err
}

type fakeValidator struct {
	err error
}

func (v *fakeValidator) Validate(_ fiber.Ctx) error {
	return v.err
}

func newConfigSlot() *hotload.Slot[*sharedconfig.Config] {
	cfg := sharedconfig.New()
	cfg.BindPath("/etc/app/config.yaml")
	cfg.Salt = "s3cr3t"
	cfg.SaltLength = 16
	cfg.Logging.Level = "info"
	cfg.Redis.Addr = "localhost:6379"
	cfg.ObjectStore.Endpoint = "minio.internal:9000"
	cfg.ObjectStore.Bucket = "uploads"
	cfg.Identity.Addr = "http://kratos:4433"
	return hotload.NewSlot(cfg)
}

type AdminConfigHandlerSuite struct {
	suite.Suite

	app *fiber.App
}

func (s *AdminConfigHandlerSuite) SetupTest() {
	handler := NewAdminConfigHandler(newConfigSlot(), newTestLogger())
	s.app = fiber.New()
	handler.Register(s.app)
}

func (s *AdminConfigHandlerSuite) TestHandle_RedactedSnapshot() {
	resp, payload, raw := performJSONRequest(s.app, http.MethodGet, "/config", nil)
	require.NotNil(s.T(), resp)

	assert.Equal(s.T(), fiber.StatusOK, resp.StatusCode)
	assert.Equal(s.T(), "/etc/app/config.yaml", payload["path"])
	assert.Equal(s.T(), float64(0), payload["reloads"])
	assert.Equal(s.T(), float64(16), payload["salt_length"])

	logging, ok := payload["logging"].(map[string]interface{})
	require.True(s.T(), ok)
	assert.Equal(s.T(), "info", logging["level"])

	redis, ok := payload["redis"].(map[string]interface{})
	require.True(s.T(), ok)
	assert.Equal(s.T(), "localhost:6379", redis["addr"])
	assert.Equal(s.T(), false, redis["enabled"])

	assert.NotContains(s.T(), string(raw), "s3cr3t", "the salt must never leave the process")
}

func TestAdminConfigHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminConfigHandlerSuite))
}

type AdminReloadsHandlerSuite struct {
	suite.Suite

	recorder *fakeRecorder
	app      *fiber.App
}

func (s *AdminReloadsHandlerSuite) SetupTest() {
	s.recorder = &fakeRecorder{}
	handler := NewAdminReloadsHandler(s.recorder, newTestLogger())
	s.app = fiber.New()
	handler.Register(s.app)
}

func (s *AdminReloadsHandlerSuite) TestHandle_TableDriven() {
	now := time.Now().UTC()

	tests := []struct {
		name      string
		path      string
		setup     func()
		assertion func(*http.Response, map[string]interface{})
	}{
		{
			name: "invalid limit",
			path: "/reloads?limit=abc",
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusBadRequest, resp.StatusCode)
				assert.Equal(s.T(), "limit must be a positive integer", payload["error"])
			},
		},
		{
			name: "negative limit",
			path: "/reloads?limit=-1",
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusBadRequest, resp.StatusCode)
			},
		},
		{
			name: "recorder failure",
			path: "/reloads",
			setup: func() {
				s.recorder.err = errors.New("db down")
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusInternalServerError, resp.StatusCode)
				assert.Equal(s.T(), "internal server error", payload["error"])
			},
		},
		{
			name: "success",
			path: "/reloads?limit=1",
			setup: func() {
				s.recorder.entries = []sharedaudit.Entry{
					{ID: "id-1", Path: "/etc/app/config.yaml", OccurredAt: now},
					{ID: "id-2", Path: "/etc/app/config.yaml", OccurredAt: now},
				}
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusOK, resp.StatusCode)
				reloads, ok := payload["reloads"].([]interface{})
				require.True(s.T(), ok)
				assert.Len(s.T(), reloads, 1)
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			if tc.setup != nil {
				tc.setup()
			}

			resp, payload, _ := performJSONRequest(s.app, http.MethodGet, tc.path, nil)
			if resp == nil {
				s.T().Fatal("failed to execute request")
			}
			tc.assertion(resp, payload)
		})
	}
}

func TestAdminReloadsHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminReloadsHandlerSuite))
}

type AdminDigestHandlerSuite struct {
	suite.Suite

	hasher *fakeHasher
	app    *fiber.App
}

func (s *AdminDigestHandlerSuite) SetupTest() {
	s.hasher = &fakeHasher{digest: "argon2id$v=19$t=1,m=65536,p=4$cGVwcGVy$ZGlnZXN0"}
	handler := NewAdminDigestHandler(s.hasher, newTestLogger())
	s.app = fiber.New()
	handler.Register(s.app)
}

func (s *AdminDigestHandlerSuite) TestHandle_TableDriven() {
	tests := []struct {
		name      string
		body      []byte
		setup     func()
		assertion func(*http.Response, map[string]interface{})
	}{
		{
			name: "invalid body",
			body: []byte(`{"value":`),
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusBadRequest, resp.StatusCode)
				assert.Equal(s.T(), "invalid request body", payload["error"])
			},
		},
		{
			name: "missing value",
			body: []byte(`{"value":"  "}`),
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusBadRequest, resp.StatusCode)
				assert.Equal(s.T(), "value is required", payload["error"])
			},
		},
		{
			name: "hasher failure",
			body: []byte(`{"value":"hunter2"}`),
			setup: func() {
				s.hasher.err = errors.New("empty salt")
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusInternalServerError, resp.StatusCode)
			},
		},
		{
			name: "success",
			body: []byte(`{"value":"hunter2"}`),
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusOK, resp.StatusCode)
				assert.Equal(s.T(), s.hasher.digest, payload["digest"])
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			if tc.setup != nil {
				tc.setup()
			}

			resp, payload, _ := performJSONRequest(s.app, http.MethodPost, "/digest", tc.body)
			if resp == nil {
				s.T().Fatal("failed to execute request")
			}
			tc.assertion(resp, payload)
		})
	}
}

// The digest endpoint wired with the real hasher produces a verifiable hash.
func TestAdminDigestHandler_RealHasher(t *testing.T) {
	hasher, err := sharedhash.New(func() sharedhash.Params {
		return sharedhash.Params{Salt: []byte("pepper"), KeyLength: 16}
	})
	require.NoError(t, err)

	app := fiber.New()
	NewAdminDigestHandler(hasher, newTestLogger()).Register(app)

	resp, payload, _ := performJSONRequest(app, http.MethodPost, "/digest", []byte(`{"value":"hunter2"}`))
	require.NotNil(t, resp)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	digest, ok := payload["digest"].(string)
	require.True(t, ok)
	assert.NoError(t, hasher.Compare(context.Background(), digest, "hunter2"))
}

func TestAdminDigestHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminDigestHandlerSuite))
}

type AuthTokenHandlerSuite struct {
	suite.Suite

	tokens    sharedjwt.TokenManager
	validator *fakeValidator
	app       *fiber.App
}

func (s *AuthTokenHandlerSuite) SetupTest() {
	tokens, err := sharedjwt.NewHMAC(sharedjwt.Options{
		Secret: func() []byte { return []byte("0123456789abcdef0123456789abcdef") },
		TTL:    time.Minute,
	})
	require.NoError(s.T(), err)

	s.tokens = tokens
	s.validator = &fakeValidator{}
	handler := NewAuthTokenHandler(tokens, s.validator, newTestLogger())
	s.app = fiber.New()
	handler.Register(s.app)
}

func (s *AuthTokenHandlerSuite) TestHandle_TableDriven() {
	tests := []struct {
		name      string
		body      []byte
		setup     func()
		assertion func(*http.Response, map[string]interface{})
	}{
		{
			name: "invalid session",
			body: []byte(`{"subject":"user-1"}`),
			setup: func() {
				s.validator.err = sharedidentity.ErrSessionInvalid
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusUnauthorized, resp.StatusCode)
				assert.Equal(s.T(), "invalid session", payload["error"])
			},
		},
		{
			name: "identity service down",
			body: []byte(`{"subject":"user-1"}`),
			setup: func() {
				s.validator.err = errors.New("connection refused")
			},
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusServiceUnavailable, resp.StatusCode)
				assert.Equal(s.T(), "identity service unavailable", payload["error"])
			},
		},
		{
			name: "invalid body",
			body: []byte(`{"subject":`),
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusBadRequest, resp.StatusCode)
				assert.Equal(s.T(), "invalid request body", payload["error"])
			},
		},
		{
			name: "missing subject",
			body: []byte(`{"subject":""}`),
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusBadRequest, resp.StatusCode)
				assert.Equal(s.T(), "subject is required", payload["error"])
			},
		},
		{
			name: "success",
			body: []byte(`{"subject":"user-1"}`),
			assertion: func(resp *http.Response, payload map[string]interface{}) {
				assert.Equal(s.T(), fiber.StatusOK, resp.StatusCode)

				token, ok := payload["token"].(string)
				require.True(s.T(), ok)

				claims, err := s.tokens.Verify(context.Background(), token)
				require.NoError(s.T(), err)
				assert.Equal(s.T(), "user-1", claims.Subject)
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			if tc.setup != nil {
				tc.setup()
			}

			resp, payload, _ := performJSONRequest(s.app, http.MethodPost, "/auth/token", tc.body)
			if resp == nil {
				s.T().Fatal("failed to execute request")
			}
			tc.assertion(resp, payload)
		})
	}
}

func TestAuthTokenHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthTokenHandlerSuite))
}
