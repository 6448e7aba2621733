// Package admission runs every inbound call through the fixed gate order:
// origin check, authentication, session resolve, rate limit. The order must
// not be rearranged: traffic that fails an earlier stage must not consume
// rate budget or create session state.
package admission

import (
	"context"
	"log"
	"net/http"

	"github.com/polyui/catalog-mcp/internal/auth"
	"github.com/polyui/catalog-mcp/internal/models"
	"github.com/polyui/catalog-mcp/internal/origin"
	"github.com/polyui/catalog-mcp/internal/ratelimit"
)

// Reason codes carried on rejections so callers can branch without parsing
// messages.
const (
	ReasonOriginForbidden = "origin_forbidden"
	ReasonUnauthorized    = "unauthorized"
	ReasonSessionMismatch = "session_mismatch"
	ReasonRateLimited     = "rate_limited"
)

// SessionHeader names the request/response header carrying the session id.
const SessionHeader = "Mcp-Session-Id"

type OriginValidator interface {
	Validate(originHeader string) origin.Result
}

type Authenticator interface {
	Authenticate(ctx context.Context, headers http.Header) auth.Result
}

type SessionStore interface {
	Create(ctx context.Context, credentialID, ownerIdentity string) (*models.Session, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Touch(ctx context.Context, sessionID string) error
}

type Limiter interface {
	Check(identifier string) ratelimit.Decision
}

// Outcome is the typed result of one admission attempt. Admit never panics
// or returns an error; the transport maps Status to the HTTP response.
type Outcome struct {
	Allowed   bool
	Status    int
	Reason    string
	Message   string
	Account   *models.Account
	Session   *models.Session
	RateLimit ratelimit.Decision
}

type Pipeline struct {
	origin   OriginValidator
	auth     Authenticator
	sessions SessionStore
	limiter  Limiter
}

func NewPipeline(ov OriginValidator, a Authenticator, sessions SessionStore, limiter Limiter) *Pipeline {
	return &Pipeline{
		origin:   ov,
		auth:     a,
		sessions: sessions,
		limiter:  limiter,
	}
}

// Admit gates one call. Stage order: origin → auth → session → rate limit.
func (p *Pipeline) Admit(ctx context.Context, headers http.Header) Outcome {
	if res := p.origin.Validate(headers.Get("Origin")); !res.Valid {
		return Outcome{
			Status:  http.StatusForbidden,
			Reason:  ReasonOriginForbidden,
			Message: res.Reason,
		}
	}

	authRes := p.auth.Authenticate(ctx, headers)
	if !authRes.Authenticated {
		return Outcome{
			Status:  http.StatusUnauthorized,
			Reason:  ReasonUnauthorized,
			Message: authRes.Message,
		}
	}
	account := authRes.Account

	session, outcome := p.resolveSession(ctx, headers.Get(SessionHeader), account)
	if outcome != nil {
		return *outcome
	}

	decision := p.limiter.Check(account.KeyHash)
	if !decision.Allowed {
		return Outcome{
			Status:    http.StatusTooManyRequests,
			Reason:    ReasonRateLimited,
			Message:   "rate limit exceeded (" + decision.LimitType + ")",
			Account:   account,
			Session:   session,
			RateLimit: decision,
		}
	}

	return Outcome{
		Allowed:   true,
		Status:    http.StatusOK,
		Account:   account,
		Session:   session,
		RateLimit: decision,
	}
}

// resolveSession reuses a presented live session or creates a fresh one.
// A session bound to a different credential than the one just authenticated
// is a hard rejection: sessions are never usable across credentials.
func (p *Pipeline) resolveSession(ctx context.Context, sessionID string, account *models.Account) (*models.Session, *Outcome) {
	if sessionID != "" {
		session, err := p.sessions.Get(ctx, sessionID)
		if err != nil {
			log.Printf("admission: session lookup failed: %v", err)
		}

		if session != nil {
			if session.CredentialID != account.KeyHash {
				return nil, &Outcome{
					Status:  http.StatusForbidden,
					Reason:  ReasonSessionMismatch,
					Message: "session does not belong to this credential",
				}
			}

			// Lease extension is best-effort; a storage hiccup must not
			// reject an otherwise-valid call.
			if err := p.sessions.Touch(ctx, session.SessionID); err != nil {
				log.Printf("admission: session touch failed: %v", err)
			}
			return session, nil
		}
		// Absent or expired: fall through and mint a new session.
	}

	session, err := p.sessions.Create(ctx, account.KeyHash, account.Email)
	if err != nil {
		// Keep serving: the id is still echoed, the next call simply
		// creates another session.
		log.Printf("admission: session create failed: %v", err)
		return nil, nil
	}

	return session, nil
}
