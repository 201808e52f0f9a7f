package auth

// Profile is the normalized identity returned by an OAuth provider after a
// successful exchange. It contains facts only, no decisions.
type Profile struct {
	Provider         string // e.g. "facebook", "oidc"
	ProviderUserID   string // provider-scoped subject, informational
	ExternalIdentity string // email; the dedup key for vendor accounts
	DisplayName      string
}

// Grant carries the inputs of an authorization-code exchange as delivered
// by the provider's redirect callback.
type Grant struct {
	Code         string
	CodeVerifier string
	RedirectURI  string
}

// Token is the provider's answer to a successful code exchange.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64 // seconds; zero when the provider did not say
}
