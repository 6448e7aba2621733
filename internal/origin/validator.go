package origin

import (
	"fmt"
	"net/url"
	"strings"
)

// Result is the outcome of an origin check. Validation never fails with an
// error; a bad origin is a Result with Valid=false and a reason.
type Result struct {
	Valid  bool
	Reason string
}

// Validator checks the caller-declared Origin header against a fixed
// allow-list plus a single-label subdomain rule. Requests without an Origin
// header pass: server-to-server callers authenticate by credential instead.
type Validator struct {
	allowed    map[string]struct{}
	suffix     string
	permissive bool
}

func NewValidator(allowed []string, subdomainSuffix string, permissive bool) *Validator {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}

	return &Validator{
		allowed:    set,
		suffix:     subdomainSuffix,
		permissive: permissive,
	}
}

func (v *Validator) Validate(origin string) Result {
	if origin == "" {
		return Result{Valid: true}
	}

	origin = strings.TrimRight(strings.TrimSpace(origin), "/")

	if _, ok := v.allowed[origin]; ok {
		return Result{Valid: true}
	}

	if v.matchesSubdomain(origin) {
		return Result{Valid: true}
	}

	if v.permissive {
		return Result{Valid: true}
	}

	return Result{
		Valid:  false,
		Reason: fmt.Sprintf("origin %q is not allowed", origin),
	}
}

// matchesSubdomain accepts https origins whose host is exactly one label in
// front of the configured suffix, e.g. "docs" + ".polyui.dev".
func (v *Validator) matchesSubdomain(origin string) bool {
	if v.suffix == "" {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "https" || u.Port() != "" {
		return false
	}

	host := u.Hostname()
	if !strings.HasSuffix(host, v.suffix) {
		return false
	}

	label := strings.TrimSuffix(host, v.suffix)
	return label != "" && !strings.Contains(label, ".")
}
