package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/polyui/catalog-mcp/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	accounts map[string]*models.Account
	err      error
}

func (f *fakeResolver) ResolveByKey(_ context.Context, key string) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.accounts[key], nil
}

func activeAccount() *models.Account {
	return &models.Account{Email: "dev@example.com", Status: models.StatusActive}
}

func TestExtractCredential(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"bearer", map[string]string{"Authorization": "Bearer cat_abc"}, "cat_abc"},
		{"bearer case-insensitive scheme", map[string]string{"Authorization": "bearer cat_abc"}, "cat_abc"},
		{"api key header", map[string]string{"X-Api-Key": "cat_xyz"}, "cat_xyz"},
		{"bearer wins over api key", map[string]string{"Authorization": "Bearer cat_a", "X-Api-Key": "cat_b"}, "cat_a"},
		{"malformed bearer falls back", map[string]string{"Authorization": "cat_naked", "X-Api-Key": "cat_b"}, "cat_b"},
		{"whitespace trimmed", map[string]string{"X-Api-Key": "  cat_xyz  "}, "cat_xyz"},
		{"nothing", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tc.headers {
				h.Set(k, v)
			}
			assert.Equal(t, tc.want, ExtractCredential(h))
		})
	}
}

func TestAuthenticateNoCredential(t *testing.T) {
	a := NewAuthenticator(&fakeResolver{})

	res := a.Authenticate(context.Background(), http.Header{})
	assert.False(t, res.Authenticated)
	assert.False(t, res.Retryable)
}

func TestAuthenticateUnknownKey(t *testing.T) {
	a := NewAuthenticator(&fakeResolver{accounts: map[string]*models.Account{}})

	h := http.Header{}
	h.Set("x-api-key", "cat_unknown")

	res := a.Authenticate(context.Background(), h)
	assert.False(t, res.Authenticated)
	assert.Equal(t, "invalid API key", res.Message)
}

func TestAuthenticateStatusClassification(t *testing.T) {
	cases := []struct {
		status  string
		message string
	}{
		{models.StatusBlocked, "account is blocked"},
		{models.StatusSuspended, "account is suspended"},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			acct := activeAccount()
			acct.Status = tc.status

			a := NewAuthenticator(&fakeResolver{accounts: map[string]*models.Account{"cat_k": acct}})

			h := http.Header{}
			h.Set("x-api-key", "cat_k")

			res := a.Authenticate(context.Background(), h)
			assert.False(t, res.Authenticated)
			assert.Equal(t, tc.message, res.Message)
		})
	}
}

func TestAuthenticateActiveAccount(t *testing.T) {
	acct := activeAccount()
	a := NewAuthenticator(&fakeResolver{accounts: map[string]*models.Account{"cat_k": acct}})

	h := http.Header{}
	h.Set("Authorization", "Bearer cat_k")

	res := a.Authenticate(context.Background(), h)
	require.True(t, res.Authenticated)
	assert.Equal(t, acct, res.Account)
	assert.Equal(t, "cat_k", res.Credential)
}

func TestAuthenticateFailsClosedOnStoreError(t *testing.T) {
	a := NewAuthenticator(&fakeResolver{err: errors.New("connection refused")})

	h := http.Header{}
	h.Set("x-api-key", "cat_k")

	res := a.Authenticate(context.Background(), h)
	assert.False(t, res.Authenticated)
	assert.True(t, res.Retryable)
}
