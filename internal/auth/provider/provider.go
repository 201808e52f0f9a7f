package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"ftf-gateway/internal/auth"
)

// OAuthProvider defines the contract every external identity provider
// must implement. Implementations return identity facts only and must not
// perform vendor creation, linking, or credential management.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "facebook", "oidc").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// Exchange trades an authorization code and its PKCE verifier for a
	// provider access token. Rejections wrap auth.ErrExchange.
	Exchange(ctx context.Context, grant auth.Grant) (*auth.Token, error)

	// FetchProfile reads the external identity and display name of the
	// token's owner. Failures wrap auth.ErrProfileFetch.
	FetchProfile(ctx context.Context, accessToken string) (*auth.Profile, error)
}

// MaxResponseSize bounds provider response bodies read by hand.
const MaxResponseSize = 64 * 1024

// ClassifyExchangeError maps a failed token exchange to the gateway
// taxonomy: timeouts, transport failures, and provider rejections are kept
// apart so the caller can decide whether to restart the flow.
func ClassifyExchangeError(err error) error {
	if tErr := timeoutOrCancel(err); tErr != nil {
		return tErr
	}
	var uErr *url.Error
	if errors.As(err, &uErr) {
		return fmt.Errorf("%w: %w", auth.ErrProviderDown, err)
	}
	return fmt.Errorf("%w: %w", auth.ErrExchange, err)
}

// ClassifyProfileError maps a failed profile fetch.
func ClassifyProfileError(err error) error {
	if tErr := timeoutOrCancel(err); tErr != nil {
		return tErr
	}
	return fmt.Errorf("%w: %w", auth.ErrProfileFetch, err)
}

func timeoutOrCancel(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", auth.ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", auth.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	}
	return nil
}
