package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ftf-gateway/internal/auth"
	"ftf-gateway/internal/auth/credentials"
	"ftf-gateway/internal/auth/provider"
	"ftf-gateway/internal/auth/resolver"
	"ftf-gateway/internal/logger"
	"ftf-gateway/internal/metrics"
)

// Issuer mints the bearer credential at the end of a login.
type Issuer interface {
	Issue(ctx context.Context, vendorID string, lifetime time.Duration) (*credentials.Issued, error)
}

// Result is what a successful login hands back to the caller.
type Result struct {
	VendorID  string
	Bearer    string
	TokenType string
	ExpiresIn int64
	ExpiresAt time.Time
	Profile   auth.Profile
}

// Flow runs one login: code exchange, profile fetch, account resolution
// and credential issuance. It performs no retries; any failure ends the
// attempt and the caller must restart the authorization step.
type Flow struct {
	providers *provider.Registry
	resolver  resolver.Resolver
	issuer    Issuer
	timeout   time.Duration
}

// NewFlow wires a flow. timeout bounds each identity provider call.
func NewFlow(
	providers *provider.Registry,
	resolver resolver.Resolver,
	issuer Issuer,
	timeout time.Duration,
) *Flow {
	return &Flow{
		providers: providers,
		resolver:  resolver,
		issuer:    issuer,
		timeout:   timeout,
	}
}

// Run executes the flow against the named provider (the default one when
// providerName is empty).
func (f *Flow) Run(ctx context.Context, providerName string, grant auth.Grant) (*Result, error) {
	res, err := f.run(ctx, providerName, grant)

	outcome := "success"
	var fe *FlowError
	if errors.As(err, &fe) {
		outcome = fe.Stage.String()
	}
	if providerName == "" {
		providerName = "default"
	}
	metrics.LoginsTotal.WithLabelValues(providerName, outcome).Inc()

	return res, err
}

func (f *Flow) run(ctx context.Context, providerName string, grant auth.Grant) (*Result, error) {
	// AwaitingCode
	if grant.Code == "" || grant.CodeVerifier == "" {
		return nil, fail(AwaitingCode, fmt.Errorf("%w: code and code_verifier are required", auth.ErrExchange))
	}

	p, err := f.providers.Get(providerName)
	if err != nil {
		return nil, fail(AwaitingCode, fmt.Errorf("%w: %w", auth.ErrExchange, err))
	}

	// ExchangingToken
	var token *auth.Token
	err = f.bounded(ctx, p.Name(), ExchangingToken, func(ctx context.Context) error {
		var err error
		token, err = p.Exchange(ctx, grant)
		return err
	})
	if err != nil {
		return nil, fail(ExchangingToken, err)
	}

	// FetchingProfile
	var profile *auth.Profile
	err = f.bounded(ctx, p.Name(), FetchingProfile, func(ctx context.Context) error {
		var err error
		profile, err = p.FetchProfile(ctx, token.AccessToken)
		return err
	})
	if err != nil {
		return nil, fail(FetchingProfile, err)
	}

	logger.Debug("identity provider flow resolved", map[string]any{
		"provider": p.Name(),
		"state":    Resolved.String(),
	})

	// ResolvingAccount
	vendorID, err := f.resolver.Resolve(ctx, profile)
	if err != nil {
		return nil, fail(ResolvingAccount, err)
	}

	// IssuingCredential
	lifetime := time.Duration(token.ExpiresIn) * time.Second
	issued, err := f.issuer.Issue(ctx, vendorID, lifetime)
	if err != nil {
		return nil, fail(IssuingCredential, err)
	}

	logger.Info("login completed", map[string]any{
		"provider":      p.Name(),
		"vendor_id":     vendorID,
		"credential_id": issued.Credential.ID,
		"expires_at":    issued.Credential.ExpiresAt,
	})

	c := issued.Credential
	return &Result{
		VendorID:  vendorID,
		Bearer:    issued.Bearer,
		TokenType: "Bearer",
		ExpiresIn: int64(c.ExpiresAt.Sub(c.IssuedAt) / time.Second),
		ExpiresAt: c.ExpiresAt,
		Profile:   *profile,
	}, nil
}

// bounded runs one provider call under the per-call timeout. A deadline
// hit by this bound (not by the caller) is reported as auth.ErrTimeout
// whatever the provider made of it.
func (f *Flow) bounded(ctx context.Context, providerName string, stage State, call func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	err := call(callCtx)
	metrics.ProviderLatency.WithLabelValues(providerName, stage.String()).Observe(time.Since(start).Seconds())

	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, auth.ErrTimeout) {
		return fmt.Errorf("%w: %w", auth.ErrTimeout, err)
	}
	return err
}

func fail(stage State, err error) error {
	return &FlowError{Stage: stage, Err: err}
}
