package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyui/catalog-mcp/internal/admission"
	"github.com/polyui/catalog-mcp/internal/auth"
	"github.com/polyui/catalog-mcp/internal/catalog"
	"github.com/polyui/catalog-mcp/internal/models"
	"github.com/polyui/catalog-mcp/internal/origin"
	"github.com/polyui/catalog-mcp/internal/ratelimit"
	"github.com/polyui/catalog-mcp/internal/rpc"
)

type stubResolver struct {
	accounts map[string]*models.Account
	calls    int
}

func (r *stubResolver) ResolveByKey(ctx context.Context, key string) (*models.Account, error) {
	r.calls++
	return r.accounts[key], nil
}

type stubSessions struct {
	sessions map[string]*models.Session
	created  int
}

func (s *stubSessions) Create(ctx context.Context, credentialID, ownerIdentity string) (*models.Session, error) {
	s.created++
	session := &models.Session{
		SessionID:     "sess-new",
		CredentialID:  credentialID,
		OwnerIdentity: ownerIdentity,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
	}
	s.sessions[session.SessionID] = session
	return session, nil
}

func (s *stubSessions) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.sessions[sessionID], nil
}

func (s *stubSessions) Touch(ctx context.Context, sessionID string) error {
	return nil
}

type stubRecorder struct {
	rows []models.UsageLog
}

func (r *stubRecorder) Record(row models.UsageLog) {
	r.rows = append(r.rows, row)
}

type mcpFixture struct {
	router   *gin.Engine
	resolver *stubResolver
	sessions *stubSessions
	recorder *stubRecorder
	limiter  *ratelimit.Limiter
}

func newMCPFixture(t *testing.T) *mcpFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resolver := &stubResolver{
		accounts: map[string]*models.Account{
			"cat_valid": {Email: "dev@example.com", KeyHash: "hash-valid", Status: models.StatusActive},
		},
	}
	sessions := &stubSessions{sessions: make(map[string]*models.Session)}
	recorder := &stubRecorder{}
	limiter := ratelimit.New(1, time.Minute, 100, 24*time.Hour)

	pipeline := admission.NewPipeline(
		origin.NewValidator([]string{"https://polyui.dev"}, ".polyui.dev", false),
		auth.NewAuthenticator(resolver),
		sessions,
		limiter,
	)

	registry, err := catalog.NewRegistry()
	require.NoError(t, err)

	router := gin.New()
	router.POST("/mcp", NewMCPHandler(pipeline, rpc.NewDispatcher(registry, recorder)).Handle)

	return &mcpFixture{
		router:   router,
		resolver: resolver,
		sessions: sessions,
		recorder: recorder,
		limiter:  limiter,
	}
}

func (f *mcpFixture) post(body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

const toolsListBody = `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`

func TestMCPFirstCallAdmitted(t *testing.T) {
	f := newMCPFixture(t)

	w := f.post(toolsListBody, map[string]string{
		"Origin":        "https://polyui.dev",
		"Authorization": "Bearer cat_valid",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-new", w.Header().Get("Mcp-Session-Id"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	var resp struct {
		JSONRPC string `json:"jsonrpc"`
		Result  struct {
			Tools []catalog.Tool `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Len(t, resp.Result.Tools, 5)

	require.Len(t, f.recorder.rows, 1)
	assert.Equal(t, "tools/list", f.recorder.rows[0].Method)
	assert.True(t, f.recorder.rows[0].Succeeded)
}

func TestMCPSecondCallWithinMinuteRateLimited(t *testing.T) {
	f := newMCPFixture(t)
	headers := map[string]string{
		"Origin":        "https://polyui.dev",
		"Authorization": "Bearer cat_valid",
	}

	require.Equal(t, http.StatusOK, f.post(toolsListBody, headers).Code)

	w := f.post(toolsListBody, headers)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "minute", w.Header().Get("X-RateLimit-Limit-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, admission.ReasonRateLimited, resp.Error.Code)
}

func TestMCPForbiddenOriginShortCircuits(t *testing.T) {
	f := newMCPFixture(t)

	w := f.post(toolsListBody, map[string]string{
		"Origin":        "https://evil.example.com",
		"Authorization": "Bearer cat_valid",
	})

	require.Equal(t, http.StatusForbidden, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, admission.ReasonOriginForbidden, resp.Error.Code)

	// Rejected before auth: no credential lookup, no rate budget consumed,
	// no session minted.
	assert.Zero(t, f.resolver.calls)
	assert.Zero(t, f.sessions.created)
	assert.Zero(t, f.limiter.Size())
}

func TestMCPMissingKeyUnauthorized(t *testing.T) {
	f := newMCPFixture(t)

	w := f.post(toolsListBody, map[string]string{"Origin": "https://polyui.dev"})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, f.limiter.Size())
}

func TestMCPSessionMismatchRejected(t *testing.T) {
	f := newMCPFixture(t)
	f.sessions.sessions["sess-other"] = &models.Session{
		SessionID:    "sess-other",
		CredentialID: "hash-of-somebody-else",
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	w := f.post(toolsListBody, map[string]string{
		"Origin":         "https://polyui.dev",
		"Authorization":  "Bearer cat_valid",
		"Mcp-Session-Id": "sess-other",
	})

	require.Equal(t, http.StatusForbidden, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, admission.ReasonSessionMismatch, resp.Error.Code)

	// The mismatch is caught before the rate limit stage.
	assert.Zero(t, f.limiter.Size())
}

func TestMCPSessionReuse(t *testing.T) {
	f := newMCPFixture(t)
	f.sessions.sessions["sess-mine"] = &models.Session{
		SessionID:    "sess-mine",
		CredentialID: "hash-valid",
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	w := f.post(toolsListBody, map[string]string{
		"Origin":         "https://polyui.dev",
		"Authorization":  "Bearer cat_valid",
		"Mcp-Session-Id": "sess-mine",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-mine", w.Header().Get("Mcp-Session-Id"))
	assert.Zero(t, f.sessions.created)
}

func TestMCPInvalidEnvelope(t *testing.T) {
	f := newMCPFixture(t)

	w := f.post(`{"jsonrpc":"1.0","id":1,"method":"tools/list"}`, map[string]string{
		"Origin":        "https://polyui.dev",
		"Authorization": "Bearer cat_valid",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error *struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeInvalidRequest, resp.Error.Code)

	// Admission succeeded, so the failure still shows up in usage.
	require.Len(t, f.recorder.rows, 1)
	assert.False(t, f.recorder.rows[0].Succeeded)
}

func TestMCPOversizedBodyRejected(t *testing.T) {
	f := newMCPFixture(t)

	w := f.post(strings.Repeat("x", maxBodyBytes+1), map[string]string{
		"Origin":        "https://polyui.dev",
		"Authorization": "Bearer cat_valid",
	})

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "payload_too_large", resp.Error.Code)

	// Truncation must not masquerade as a parse error or consume budget.
	assert.Zero(t, f.limiter.Size())
	assert.Empty(t, f.recorder.rows)
}

func TestMCPUnknownToolIsRPCError(t *testing.T) {
	f := newMCPFixture(t)

	body := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"no_such_tool"}}`
	w := f.post(body, map[string]string{
		"Origin":        "https://polyui.dev",
		"Authorization": "Bearer cat_valid",
	})

	// Past the envelope everything is HTTP 200 with a JSON-RPC error.
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Error *struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, rpc.CodeInvalidParams, resp.Error.Code)
}
