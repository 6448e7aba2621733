// Package auth resolves a presented API key to an account. Expected
// conditions are a typed Result; only the transport maps results to status
// codes.
package auth

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/polyui/catalog-mcp/internal/models"
)

// AccountResolver maps a raw key to its account record, or (nil, nil) when
// no account matches. Implemented by service.AccountService.
type AccountResolver interface {
	ResolveByKey(ctx context.Context, key string) (*models.Account, error)
}

// Result classifies one authentication attempt.
type Result struct {
	Authenticated bool
	Account       *models.Account
	Credential    string // the raw key as presented
	Message       string
	Retryable     bool // true when the store was unreachable, not a bad key
}

type Authenticator struct {
	resolver AccountResolver
}

func NewAuthenticator(resolver AccountResolver) *Authenticator {
	return &Authenticator{resolver: resolver}
}

// ExtractCredential pulls the API key from the request headers. A bearer
// token takes priority over the dedicated key header.
func ExtractCredential(headers http.Header) string {
	if authHeader := headers.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	return strings.TrimSpace(headers.Get("x-api-key"))
}

// Authenticate never returns an error: store failures fail closed with a
// retryable message.
func (a *Authenticator) Authenticate(ctx context.Context, headers http.Header) Result {
	credential := ExtractCredential(headers)
	if credential == "" {
		return Result{Message: "missing API key"}
	}

	account, err := a.resolver.ResolveByKey(ctx, credential)
	if err != nil {
		log.Printf("auth: account lookup failed: %v", err)
		return Result{
			Message:   "authentication temporarily unavailable, please retry",
			Retryable: true,
		}
	}

	if account == nil {
		return Result{Message: "invalid API key"}
	}

	switch account.Status {
	case models.StatusBlocked:
		return Result{Message: "account is blocked"}
	case models.StatusSuspended:
		return Result{Message: "account is suspended"}
	}

	return Result{
		Authenticated: true,
		Account:       account,
		Credential:    credential,
	}
}
