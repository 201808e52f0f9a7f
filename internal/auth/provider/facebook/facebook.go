package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ftf-gateway/internal/auth"
	"ftf-gateway/internal/auth/provider"
	"ftf-gateway/internal/logger"

	"golang.org/x/oauth2"
)

const providerName = "facebook"

type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	// ProfileURL must return {"id","name","email"}, e.g.
	// https://graph.facebook.com/v18.0/me?fields=id,name,email
	ProfileURL  string
	RedirectURL string
	Scopes      []string

	// HTTPClient is used for both the token and the profile call.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Provider implements the Facebook login flow: a plain OAuth2 code
// exchange against explicit endpoints followed by a Graph API profile read.
type Provider struct {
	oauthConfig *oauth2.Config
	profileURL  string
	httpClient  *http.Client
}

func New(cfg Config) (*Provider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" ||
		cfg.AuthURL == "" || cfg.TokenURL == "" || cfg.ProfileURL == "" {
		return nil, errors.New("facebook oauth config missing required fields")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: cfg.Scopes,
		},
		profileURL: cfg.ProfileURL,
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
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (p *Provider) Exchange(ctx context.Context, grant auth.Grant) (*auth.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_verifier", grant.CodeVerifier),
	}
	if grant.RedirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", grant.RedirectURI))
	}

	token, err := p.oauthConfig.Exchange(ctx, grant.Code, opts...)
	if err != nil {
		logger.Warn("facebook token exchange failed", map[string]any{
			"error": err,
		})
		return nil, provider.ClassifyExchangeError(err)
	}

	return toAuthToken(token), nil
}

func (p *Provider) FetchProfile(ctx context.Context, accessToken string) (*auth.Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	client := p.oauthConfig.Client(ctx, &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, provider.ClassifyProfileError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, provider.ClassifyProfileError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, provider.MaxResponseSize))
	if err != nil {
		return nil, provider.ClassifyProfileError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, provider.ClassifyProfileError(
			fmt.Errorf("graph profile returned status %d", resp.StatusCode),
		)
	}

	var profile struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, provider.ClassifyProfileError(fmt.Errorf("decode graph profile: %w", err))
	}

	if profile.Email == "" {
		return nil, provider.ClassifyProfileError(errors.New("graph profile missing email"))
	}

	logger.Info("facebook profile fetched", map[string]any{
		"subject_present": profile.ID != "",
		"name_present":    profile.Name != "",
	})

	return &auth.Profile{
		Provider:         providerName,
		ProviderUserID:   profile.ID,
		ExternalIdentity: profile.Email,
		DisplayName:      profile.Name,
	}, nil
}

func toAuthToken(t *oauth2.Token) *auth.Token {
	out := &auth.Token{
		AccessToken: t.AccessToken,
		TokenType:   t.Type(),
	}
	if !t.Expiry.IsZero() {
		if secs := int64(time.Until(t.Expiry).Round(time.Second) / time.Second); secs > 0 {
			out.ExpiresIn = secs
		}
	}
	return out
}
