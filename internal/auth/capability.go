package auth

import (
	"crypto/subtle"

	"github.com/tagpilot/attribution-insights/internal/config"
)

// Capability names a permission the admin host grants to a principal.
type Capability string

// CapManageAnalytics gates every report query; nothing touches storage
// without it.
const CapManageAnalytics Capability = "manage_store_analytics"

// Verifier answers capability checks for presented API tokens.
type Verifier struct {
	cfg config.AuthConfig
}

// NewVerifier builds a verifier from auth configuration.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

// HasCapability reports whether the token grants the capability. With
// auth disabled every check passes (development mode).
func (v *Verifier) HasCapability(token string, c Capability) bool {
	if !v.cfg.Enabled {
		return true
	}
	if token == "" {
		return false
	}
	// The master key carries every capability. Per-capability tokens
	// would hang off a token store here.
	return subtle.ConstantTimeCompare([]byte(token), []byte(v.cfg.MasterKey)) == 1
}
