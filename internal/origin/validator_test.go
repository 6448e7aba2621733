package origin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allowed = []string{
	"https://polyui.dev",
	"https://www.polyui.dev",
	"http://localhost:3000",
}

func TestValidateAllowList(t *testing.T) {
	v := NewValidator(allowed, ".polyui.dev", false)

	for _, o := range allowed {
		res := v.Validate(o)
		assert.True(t, res.Valid, "expected %s to be allowed", o)
	}
}

func TestValidateNoOriginHeader(t *testing.T) {
	v := NewValidator(allowed, ".polyui.dev", false)

	res := v.Validate("")
	assert.True(t, res.Valid)
}

func TestValidateRejections(t *testing.T) {
	v := NewValidator(allowed, ".polyui.dev", false)

	cases := []struct {
		name   string
		origin string
	}{
		{"unknown host", "https://evil.example.com"},
		{"scheme mismatch", "http://polyui.dev"},
		{"port mismatch", "https://polyui.dev:8443"},
		{"localhost wrong port", "http://localhost:4000"},
		{"two subdomain labels", "https://a.b.polyui.dev"},
		{"suffix without label", "https://.polyui.dev"},
		{"suffix as infix", "https://polyui.dev.evil.com"},
		{"http subdomain", "http://docs.polyui.dev"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := v.Validate(tc.origin)
			assert.False(t, res.Valid)
			assert.Contains(t, res.Reason, tc.origin)
		})
	}
}

func TestValidateSubdomain(t *testing.T) {
	v := NewValidator(allowed, ".polyui.dev", false)

	res := v.Validate("https://docs.polyui.dev")
	assert.True(t, res.Valid)
}

func TestValidatePermissiveMode(t *testing.T) {
	v := NewValidator(allowed, ".polyui.dev", true)

	res := v.Validate("https://evil.example.com")
	assert.True(t, res.Valid)
}

func TestValidateTrailingSlash(t *testing.T) {
	v := NewValidator(allowed, ".polyui.dev", false)

	res := v.Validate("https://polyui.dev/")
	assert.True(t, res.Valid)
}
