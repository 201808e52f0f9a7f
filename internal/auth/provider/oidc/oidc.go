package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ftf-gateway/internal/auth"
	"ftf-gateway/internal/auth/provider"
	"ftf-gateway/internal/logger"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const providerName = "oidc"

type Config struct {
	// Issuer is the discovery base, e.g. http://localhost:8081/realms/ftf
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	HTTPClient   *http.Client
}

// Provider implements login against any OpenID Connect issuer. The profile
// comes from the userinfo endpoint; an id_token, when returned, is verified
// but not required.
type Provider struct {
	oauthConfig *oauth2.Config
	oidc        *gooidc.Provider
	verifier    *gooidc.IDTokenVerifier
	httpClient  *http.Client
}

// New initializes the provider using OIDC discovery.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Issuer == "" || cfg.ClientID == "" {
		return nil, errors.New("oidc config missing required fields")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	oidcProvider, err := gooidc.NewProvider(gooidc.ClientContext(ctx, client), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init oidc provider: %w", err)
	}

	scopes := []string{gooidc.ScopeOpenID}
	for _, s := range cfg.Scopes {
		if s != gooidc.ScopeOpenID {
			scopes = append(scopes, s)
		}
	}

	return &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     oidcProvider.Endpoint(),
			Scopes:       scopes,
		},
		oidc:       oidcProvider,
		verifier:   oidcProvider.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		httpClient: client,
	}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// Exchange trades the code for tokens. This method MUST NOT create vendors
// or credentials.
func (p *Provider) Exchange(ctx context.Context, grant auth.Grant) (*auth.Token, error) {
	ctx = gooidc.ClientContext(ctx, p.httpClient)

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_verifier", grant.CodeVerifier),
	}
	if grant.RedirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", grant.RedirectURI))
	}

	token, err := p.oauthConfig.Exchange(ctx, grant.Code, opts...)
	if err != nil {
		logger.Warn("oidc token exchange failed", map[string]any{
			"error": err,
		})
		return nil, provider.ClassifyExchangeError(err)
	}

	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		idToken, err := p.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			logger.Warn("oidc id_token verification failed", map[string]any{
				"error": err,
			})
			return nil, fmt.Errorf("%w: id_token verification: %w", auth.ErrExchange, err)
		}
		logger.Debug("oidc id_token verified", map[string]any{
			"issuer":      idToken.Issuer,
			"audience":    idToken.Audience,
			"expiry_unix": idToken.Expiry.Unix(),
		})
	}

	out := &auth.Token{
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
	}
	if !token.Expiry.IsZero() {
		if secs := int64(time.Until(token.Expiry).Round(time.Second) / time.Second); secs > 0 {
			out.ExpiresIn = secs
		}
	}
	return out, nil
}

// FetchProfile calls the userinfo endpoint with the access token.
func (p *Provider) FetchProfile(ctx context.Context, accessToken string) (*auth.Profile, error) {
	ctx = gooidc.ClientContext(ctx, p.httpClient)

	info, err := p.oidc.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	if err != nil {
		return nil, provider.ClassifyProfileError(err)
	}

	var claims struct {
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := info.Claims(&claims); err != nil {
		return nil, provider.ClassifyProfileError(fmt.Errorf("userinfo claims parse failed: %w", err))
	}

	if info.Subject == "" || info.Email == "" {
		return nil, provider.ClassifyProfileError(errors.New("userinfo missing required claims"))
	}

	name := claims.Name
	if name == "" {
		name = claims.PreferredUsername
	}

	logger.Info("oidc userinfo fetched", map[string]any{
		"subject_present": info.Subject != "",
		"email_verified":  info.EmailVerified,
	})

	return &auth.Profile{
		Provider:         providerName,
		ProviderUserID:   info.Subject,
		ExternalIdentity: info.Email,
		DisplayName:      name,
	}, nil
}
