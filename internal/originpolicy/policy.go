package originpolicy

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Mode selects how AllowedOrigins is seeded at startup.
type Mode string

const (
	// ModeAll permits every origin.
	ModeAll Mode = "all"
	// ModeLocalApps permits the local app origin plus any configured origins.
	ModeLocalApps Mode = "localapps"
)

const (
	// Wildcard is the allowlist entry that permits every origin.
	Wildcard = "*"
	// LocalAppOrigin is the origin used by bundled desktop apps.
	LocalAppOrigin = "app://."
)

// ErrUnknownMode is returned for a policy mode other than ModeAll or ModeLocalApps.
var ErrUnknownMode = errors.New("unknown cors policy mode")

// LocalhostPattern matches any scheme pointing at a loopback host, with an optional port.
var LocalhostPattern = regexp.MustCompile(`^[a-zA-Z+\-.]+://(([^/]+\.)?localhost|127\.0\.0\.1|\[::1\])(:[0-9]+)?$`)

// BrowserExtensionPrefixes are origin prefixes used by browser extensions.
var BrowserExtensionPrefixes = []string{
	"chrome-extension://",
	"moz-extension://",
	"ms-browser-extension://",
	"safari-extension://",
	"safari-web-extension://",
}

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAll, ModeLocalApps:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Evaluator decides whether a request may reach the application based on its headers.
type Evaluator interface {
	Evaluate(h http.Header) Decision
}

// Policy is the resolved, read-only origin allowlist. It is safe for concurrent use.
type Policy struct {
	mode      Mode
	allowed   []string
	members   map[string]struct{}
	wildcard  bool
	localhost *regexp.Regexp
}

var _ Evaluator = (*Policy)(nil)

// New resolves the allowlist for mode. allowOrigin is appended in order under
// ModeLocalApps and ignored under ModeAll. A literal "*" in allowOrigin is kept
// and reported as deprecated through logger.
func New(mode Mode, allowOrigin []string, logger *zap.Logger) (*Policy, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var allowed []string
	switch mode {
	case ModeAll:
		allowed = []string{Wildcard}
	case ModeLocalApps:
		allowed = make([]string, 0, len(allowOrigin)+1)
		allowed = append(allowed, LocalAppOrigin)
		allowed = append(allowed, allowOrigin...)
		if slices.Contains(allowOrigin, Wildcard) {
			logger.Warn("deprecated_allow_origin_wildcard",
				zap.String("cors_policy_mode", string(mode)),
				zap.String("hint", `use "--cors-policy-mode all" instead of "*" in allow_origin`),
			)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}

	members := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		members[o] = struct{}{}
	}
	_, wildcard := members[Wildcard]

	return &Policy{
		mode:      mode,
		allowed:   allowed,
		members:   members,
		wildcard:  wildcard,
		localhost: LocalhostPattern,
	}, nil
}

// Mode returns the mode the policy was built with.
func (p *Policy) Mode() Mode { return p.mode }

// AllowedOrigins returns a copy of the resolved allowlist in configuration order.
func (p *Policy) AllowedOrigins() []string { return slices.Clone(p.allowed) }

// AllowsAll reports whether the allowlist contains the wildcard entry.
func (p *Policy) AllowsAll() bool { return p.wildcard }

// Evaluate applies the allow rules to the Origin header of a request.
func (p *Policy) Evaluate(h http.Header) Decision {
	values := h.Values("Origin")
	if len(values) == 0 {
		return Decision{Allowed: true, Rule: RuleNoOrigin}
	}
	return p.EvaluateOrigin(values[0])
}

// EvaluateOrigin applies the allow rules to an origin value known to be present.
func (p *Policy) EvaluateOrigin(origin string) Decision {
	if rule, ok := p.matchCORS(origin); ok {
		return Decision{Allowed: true, Rule: rule}
	}
	for _, prefix := range BrowserExtensionPrefixes {
		if strings.HasPrefix(origin, prefix) {
			return Decision{Allowed: true, Rule: RuleBrowserExtension}
		}
	}
	return Decision{Allowed: false, Rule: RuleNone}
}

// AllowsCORS reports whether origin should receive Access-Control-Allow-* headers.
// Browser extension origins pass the filter but are not granted CORS access.
func (p *Policy) AllowsCORS(origin string) bool {
	_, ok := p.matchCORS(origin)
	return ok
}

func (p *Policy) matchCORS(origin string) (Rule, bool) {
	if p.wildcard {
		return RuleWildcard, true
	}
	if _, ok := p.members[origin]; ok {
		return RuleAllowlisted, true
	}
	if p.localhost.MatchString(origin) {
		return RuleLocalhost, true
	}
	return RuleNone, false
}
