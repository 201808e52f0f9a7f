package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderFacebook = "facebook"
	ProviderOIDC     = "oidc"
)

type Config struct {
	AppPort  string
	LogLevel string

	// How long in-flight requests get to drain on SIGTERM.
	ShutdownTimeout time.Duration

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string

	// Identity provider used by POST /auth/token when the form names none.
	OAuthProvider     string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthURL      string
	OAuthTokenURL     string
	OAuthProfileURL   string
	OAuthIssuer       string
	OAuthRedirectURL  string
	OAuthScopes       []string

	ProviderTimeout      time.Duration
	DefaultCredentialTTL time.Duration

	// Browser origins allowed to call /auth and /api. "*" allows any.
	CORSAllowedOrigins []string
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("app.shutdown_timeout", "10s")

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("oauth.provider", ProviderFacebook)
	v.SetDefault("oauth.auth_url", "https://www.facebook.com/v18.0/dialog/oauth")
	v.SetDefault("oauth.token_url", "https://graph.facebook.com/v18.0/oauth/access_token")
	v.SetDefault("oauth.profile_url", "https://graph.facebook.com/v18.0/me?fields=id,name,email")

	v.SetDefault("oauth.provider_timeout", "5s")
	v.SetDefault("credential.default_ttl", "1h")

	v.SetDefault("cors.allowed_origins", "*")
}

// Load reads configuration from the environment. Keys map to upper-case
// variables with dots replaced by underscores (oauth.client_id ->
// OAUTH_CLIENT_ID).
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:  v.GetString("app.port"),
		LogLevel: v.GetString("log.level"),

		DatabaseDSN: v.GetString("database.dsn"),

		RedisAddr:     v.GetString("redis.addr"),
		RedisPassword: v.GetString("redis.password"),

		OAuthProvider:     strings.ToLower(v.GetString("oauth.provider")),
		OAuthClientID:     v.GetString("oauth.client_id"),
		OAuthClientSecret: v.GetString("oauth.client_secret"),
		OAuthAuthURL:      v.GetString("oauth.auth_url"),
		OAuthTokenURL:     v.GetString("oauth.token_url"),
		OAuthProfileURL:   v.GetString("oauth.profile_url"),
		OAuthIssuer:       v.GetString("oauth.issuer"),
		OAuthRedirectURL:  v.GetString("oauth.redirect_url"),
		OAuthScopes:       splitCSV(v.GetString("oauth.scopes")),

		CORSAllowedOrigins: splitCSV(v.GetString("cors.allowed_origins")),
	}

	if len(cfg.OAuthScopes) == 0 {
		cfg.OAuthScopes = defaultScopes(cfg.OAuthProvider)
	}

	var err error
	if cfg.ProviderTimeout, err = parseDuration(v, "oauth.provider_timeout"); err != nil {
		return Config{}, err
	}
	if cfg.DefaultCredentialTTL, err = parseDuration(v, "credential.default_ttl"); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = parseDuration(v, "app.shutdown_timeout"); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required"))
	}
	if c.OAuthClientID == "" || c.OAuthClientSecret == "" {
		errs = append(errs, errors.New("OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET are required"))
	}

	switch c.OAuthProvider {
	case ProviderFacebook:
		if c.OAuthAuthURL == "" || c.OAuthTokenURL == "" || c.OAuthProfileURL == "" {
			errs = append(errs, errors.New("facebook provider needs auth, token and profile URLs"))
		}
	case ProviderOIDC:
		if c.OAuthIssuer == "" {
			errs = append(errs, errors.New("OAUTH_ISSUER is required for the oidc provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown OAUTH_PROVIDER %q", c.OAuthProvider))
	}

	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("OAUTH_PROVIDER_TIMEOUT must be positive"))
	}
	if len(c.CORSAllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must name at least one origin or *"))
	}
	if c.DefaultCredentialTTL <= 0 {
		errs = append(errs, errors.New("CREDENTIAL_DEFAULT_TTL must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("APP_SHUTDOWN_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

func defaultScopes(provider string) []string {
	if provider == ProviderOIDC {
		return []string{"openid", "email", "profile"}
	}
	return []string{"email", "public_profile"}
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", strings.ToUpper(strings.ReplaceAll(key, ".", "_")), err)
	}
	return d, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
