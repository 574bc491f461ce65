package models

import "github.com/benvon/origin-guard/internal/originpolicy"

// CorsPolicy is the public view of the resolved origin policy.
type CorsPolicy struct {
	Mode                     string   `json:"cors_policy_mode" yaml:"cors_policy_mode"`
	AllowedOrigins           []string `json:"allowed_origins" yaml:"allowed_origins"`
	LocalhostPattern         string   `json:"localhost_pattern" yaml:"localhost_pattern"`
	BrowserExtensionPrefixes []string `json:"browser_extension_prefixes" yaml:"browser_extension_prefixes"`
}

// NewCorsPolicy snapshots p for display.
func NewCorsPolicy(p *originpolicy.Policy) CorsPolicy {
	return CorsPolicy{
		Mode:                     string(p.Mode()),
		AllowedOrigins:           p.AllowedOrigins(),
		LocalhostPattern:         originpolicy.LocalhostPattern.String(),
		BrowserExtensionPrefixes: append([]string(nil), originpolicy.BrowserExtensionPrefixes...),
	}
}
