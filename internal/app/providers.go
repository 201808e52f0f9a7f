package app

import (
	"context"
	"fmt"
	"net/http"

	"ftf-gateway/internal/auth/provider"
	"ftf-gateway/internal/auth/provider/facebook"
	"ftf-gateway/internal/auth/provider/oidc"
	"ftf-gateway/internal/config"
)

// setupProviders builds the configured identity provider. The HTTP
// client carries no timeout of its own; every call is bounded by the
// login flow's per-call deadline.
func setupProviders(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	client := &http.Client{Transport: http.DefaultTransport}

	switch cfg.OAuthProvider {
	case config.ProviderFacebook:
		p, err := facebook.New(facebook.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			AuthURL:      cfg.OAuthAuthURL,
			TokenURL:     cfg.OAuthTokenURL,
			ProfileURL:   cfg.OAuthProfileURL,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       cfg.OAuthScopes,
			HTTPClient:   client,
		})
		if err != nil {
			return nil, err
		}
		return provider.NewRegistry(p), nil

	case config.ProviderOIDC:
		discoveryCtx, cancel := context.WithTimeout(ctx, cfg.ProviderTimeout)
		defer cancel()

		p, err := oidc.New(discoveryCtx, oidc.Config{
			Issuer:       cfg.OAuthIssuer,
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       cfg.OAuthScopes,
			HTTPClient:   client,
		})
		if err != nil {
			return nil, err
		}
		return provider.NewRegistry(p), nil
	}

	return nil, fmt.Errorf("unknown oauth provider %q", cfg.OAuthProvider)
}
