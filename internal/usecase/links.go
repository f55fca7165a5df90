package usecase

import (
	"strings"

	"github.com/arklim/social-platform-accounts/internal/infra/config"
)

// LinkBuilder assembles the frontend URLs embedded in outgoing mail. Links
// always carry the scrambled account identifier followed by the state token.
type LinkBuilder struct {
	cfg config.FrontendSettings
}

// NewLinkBuilder constructs a builder from the frontend settings.
func NewLinkBuilder(cfg config.FrontendSettings) LinkBuilder {
	return LinkBuilder{cfg: cfg}
}

// Activation returns the account activation link.
func (b LinkBuilder) Activation(ident, token string) string {
	return joinURL(b.cfg.URL, b.cfg.ActivationRoute, ident, token)
}

// ResetPassword returns the password reset link.
func (b LinkBuilder) ResetPassword(ident, token string) string {
	return joinURL(b.cfg.URL, b.cfg.ResetPasswordRoute, ident, token)
}

func joinURL(base string, segments ...string) string {
	parts := []string{strings.TrimRight(base, "/")}
	for _, segment := range segments {
		segment = strings.Trim(segment, "/")
		if segment == "" {
			continue
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, "/")
}
