package admission

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/polyui/catalog-mcp/internal/auth"
	"github.com/polyui/catalog-mcp/internal/models"
	"github.com/polyui/catalog-mcp/internal/origin"
	"github.com/polyui/catalog-mcp/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrigin struct {
	rejected []string
}

func (f *fakeOrigin) Validate(o string) origin.Result {
	for _, r := range f.rejected {
		if o == r {
			return origin.Result{Valid: false, Reason: "origin " + o + " is not allowed"}
		}
	}
	return origin.Result{Valid: true}
}

type fakeAuth struct {
	result auth.Result
	called bool
}

func (f *fakeAuth) Authenticate(context.Context, http.Header) auth.Result {
	f.called = true
	return f.result
}

type fakeSessions struct {
	stored    map[string]*models.Session
	createErr error
	created   int
	touched   []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{stored: make(map[string]*models.Session)}
}

func (f *fakeSessions) Create(_ context.Context, credentialID, ownerIdentity string) (*models.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	s := &models.Session{
		SessionID:     "new-session",
		CredentialID:  credentialID,
		OwnerIdentity: ownerIdentity,
	}
	f.stored[s.SessionID] = s
	return s, nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*models.Session, error) {
	return f.stored[id], nil
}

func (f *fakeSessions) Touch(_ context.Context, id string) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeLimiter struct {
	decision ratelimit.Decision
	checks   int
}

func (f *fakeLimiter) Check(string) ratelimit.Decision {
	f.checks++
	return f.decision
}

func testAccount() *models.Account {
	return &models.Account{
		Email:   "dev@example.com",
		KeyHash: "hash-a",
		Status:  models.StatusActive,
	}
}

func allowAll() (*fakeOrigin, *fakeAuth, *fakeSessions, *fakeLimiter) {
	return &fakeOrigin{},
		&fakeAuth{result: auth.Result{Authenticated: true, Account: testAccount(), Credential: "cat_k"}},
		newFakeSessions(),
		&fakeLimiter{decision: ratelimit.Decision{Allowed: true, Remaining: 4}}
}

func headers(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func TestAdmitHappyPathCreatesSession(t *testing.T) {
	ov, a, sessions, limiter := allowAll()
	p := NewPipeline(ov, a, sessions, limiter)

	out := p.Admit(context.Background(), headers())
	require.True(t, out.Allowed)
	assert.Equal(t, http.StatusOK, out.Status)
	require.NotNil(t, out.Session)
	assert.Equal(t, "new-session", out.Session.SessionID)
	assert.Equal(t, "hash-a", out.Session.CredentialID)
	assert.Equal(t, 4, out.RateLimit.Remaining)
}

func TestAdmitOriginRejectionShortCircuits(t *testing.T) {
	ov := &fakeOrigin{rejected: []string{"https://evil.example.com"}}
	_, a, sessions, limiter := allowAll()
	p := NewPipeline(ov, a, sessions, limiter)

	out := p.Admit(context.Background(), headers("Origin", "https://evil.example.com"))
	assert.False(t, out.Allowed)
	assert.Equal(t, http.StatusForbidden, out.Status)
	assert.Equal(t, ReasonOriginForbidden, out.Reason)
	assert.Contains(t, out.Message, "https://evil.example.com")

	// Nothing past the failed stage may run.
	assert.False(t, a.called)
	assert.Zero(t, sessions.created)
	assert.Zero(t, limiter.checks)
}

func TestAdmitAuthFailureConsumesNoBudget(t *testing.T) {
	ov, _, sessions, limiter := allowAll()
	a := &fakeAuth{result: auth.Result{Message: "invalid API key"}}
	p := NewPipeline(ov, a, sessions, limiter)

	out := p.Admit(context.Background(), headers())
	assert.Equal(t, http.StatusUnauthorized, out.Status)
	assert.Equal(t, ReasonUnauthorized, out.Reason)
	assert.Zero(t, sessions.created)
	assert.Zero(t, limiter.checks)
}

func TestAdmitReusesLiveSession(t *testing.T) {
	ov, a, sessions, limiter := allowAll()
	sessions.stored["sess-1"] = &models.Session{SessionID: "sess-1", CredentialID: "hash-a"}
	p := NewPipeline(ov, a, sessions, limiter)

	out := p.Admit(context.Background(), headers(SessionHeader, "sess-1"))
	require.True(t, out.Allowed)
	assert.Equal(t, "sess-1", out.Session.SessionID)
	assert.Zero(t, sessions.created)
	assert.Equal(t, []string{"sess-1"}, sessions.touched)
}

func TestAdmitSessionCredentialMismatch(t *testing.T) {
	ov, a, sessions, limiter := allowAll()
	sessions.stored["sess-b"] = &models.Session{SessionID: "sess-b", CredentialID: "hash-b"}
	p := NewPipeline(ov, a, sessions, limiter)

	out := p.Admit(context.Background(), headers(SessionHeader, "sess-b"))
	assert.False(t, out.Allowed)
	assert.Equal(t, http.StatusForbidden, out.Status)
	assert.Equal(t, ReasonSessionMismatch, out.Reason)

	// The mismatch must reject before rate limiting runs.
	assert.Zero(t, limiter.checks)
	assert.Empty(t, sessions.touched)
}

func TestAdmitExpiredSessionFallsThroughToCreate(t *testing.T) {
	ov, a, sessions, limiter := allowAll()
	p := NewPipeline(ov, a, sessions, limiter)

	out := p.Admit(context.Background(), headers(SessionHeader, "gone"))
	require.True(t, out.Allowed)
	assert.Equal(t, 1, sessions.created)
	assert.Equal(t, "new-session", out.Session.SessionID)
}

func TestAdmitRateLimited(t *testing.T) {
	ov, a, sessions, _ := allowAll()
	limiter := &fakeLimiter{decision: ratelimit.Decision{
		Allowed:    false,
		RetryAfter: 42,
		LimitType:  ratelimit.LimitTypeMinute,
	}}
	p := NewPipeline(ov, a, sessions, limiter)

	out := p.Admit(context.Background(), headers())
	assert.False(t, out.Allowed)
	assert.Equal(t, http.StatusTooManyRequests, out.Status)
	assert.Equal(t, ReasonRateLimited, out.Reason)
	assert.Equal(t, 42, out.RateLimit.RetryAfter)
	assert.Contains(t, out.Message, "minute")
}

func TestAdmitSessionCreateFailureDoesNotReject(t *testing.T) {
	ov, a, sessions, limiter := allowAll()
	sessions.createErr = errors.New("store down")
	p := NewPipeline(ov, a, sessions, limiter)

	out := p.Admit(context.Background(), headers())
	assert.True(t, out.Allowed, "session persistence is best-effort")
	assert.Nil(t, out.Session)
}
