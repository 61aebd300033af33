package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"

	"github.com/marcogenualdo/classboard/internal/config"
	"github.com/marcogenualdo/classboard/internal/session"
	"github.com/marcogenualdo/classboard/internal/statestore"
)

// OAuth drives the authorization-code + PKCE flow against the identity
// provider and keeps the visitor's access credential usable.
type OAuth struct {
	oauth2Config oauth2.Config
	verifier     *oidc.IDTokenVerifier
	store        statestore.Store
	clock        clockwork.Clock
	logger       *slog.Logger
}

// Credential is the outcome of Resolve. When Refreshed is set the caller
// must write Session back to the response, otherwise the refresh repeats
// on every request.
type Credential struct {
	AccessToken string
	Session     session.Session
	Refreshed   bool
}

func New(ctx context.Context, cfg config.OAuthConfig, redirectURL string, store statestore.Store, clock clockwork.Clock, logger *slog.Logger) (*OAuth, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	endpoint := oauth2.Endpoint{
		AuthURL:  cfg.AuthURL,
		TokenURL: cfg.TokenURL,
	}

	var verifier *oidc.IDTokenVerifier
	if cfg.Issuer != "" && (endpoint.AuthURL == "" || endpoint.TokenURL == "" || cfg.VerifyIDToken) {
		provider, err := oidc.NewProvider(ctx, cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to discover issuer %s: %w", cfg.Issuer, err)
		}

		discovered := provider.Endpoint()
		if endpoint.AuthURL == "" {
			endpoint.AuthURL = discovered.AuthURL
		}
		if endpoint.TokenURL == "" {
			endpoint.TokenURL = discovered.TokenURL
		}

		if cfg.VerifyIDToken {
			verifier = provider.Verifier(&oidc.Config{
				ClientID: cfg.ClientID,
			})
		}
	}

	return &OAuth{
		oauth2Config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  redirectURL,
			Scopes:       cfg.Scopes,
		},
		verifier: verifier,
		store:    store,
		clock:    clock,
		logger:   logger,
	}, nil
}

// BeginLogin records a fresh pending authorization and returns the URL the
// visitor must be redirected to.
func (o *OAuth) BeginLogin(ctx context.Context) (string, error) {
	state := uuid.New().String()
	codeVerifier := oauth2.GenerateVerifier()

	if err := o.store.Begin(ctx, state, codeVerifier); err != nil {
		return "", fmt.Errorf("failed to store pending authorization: %w", err)
	}

	return o.oauth2Config.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(codeVerifier),
	), nil
}

// Exchange completes the login callback: it consumes the pending
// authorization for state and trades code for tokens.
func (o *OAuth) Exchange(ctx context.Context, state, code string) (session.Session, error) {
	if state == "" {
		return session.Session{}, ErrInvalidState
	}

	codeVerifier, err := o.store.Consume(ctx, state)
	if err != nil {
		if errors.Is(err, statestore.ErrNotFound) {
			return session.Session{}, ErrInvalidState
		}
		return session.Session{}, fmt.Errorf("failed to look up pending authorization: %w", err)
	}

	if code == "" {
		return session.Session{}, fmt.Errorf("%w: missing code parameter", ErrCodeExchangeFailed)
	}

	token, err := o.oauth2Config.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: %w", ErrCodeExchangeFailed, err)
	}

	if err := o.verifyIDToken(ctx, token); err != nil {
		return session.Session{}, fmt.Errorf("%w: %w", ErrCodeExchangeFailed, err)
	}

	return o.sessionFromToken(token, ""), nil
}

// Resolve returns a usable access credential for s, refreshing it when only
// the refresh credential is present.
func (o *OAuth) Resolve(ctx context.Context, s session.Session) (Credential, error) {
	switch {
	case s.HasAccess():
		return Credential{AccessToken: s.AccessToken, Session: s}, nil

	case s.HasRefresh():
		token, err := o.oauth2Config.TokenSource(ctx, &oauth2.Token{
			RefreshToken: s.RefreshToken,
		}).Token()
		if err != nil {
			return Credential{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		}

		refreshed := o.sessionFromToken(token, s.RefreshToken)
		o.logger.Debug("access token refreshed", "expires_at", refreshed.AccessExpiry)

		return Credential{
			AccessToken: refreshed.AccessToken,
			Session:     refreshed,
			Refreshed:   true,
		}, nil

	default:
		return Credential{}, ErrNoToken
	}
}

func (o *OAuth) sessionFromToken(token *oauth2.Token, previousRefresh string) session.Session {
	lifetime := session.DefaultAccessLifetime
	if token.ExpiresIn > 0 {
		lifetime = time.Duration(token.ExpiresIn) * time.Second
	}

	refresh := token.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}

	return session.Session{
		AccessToken:  token.AccessToken,
		AccessExpiry: o.clock.Now().Add(lifetime).UTC().Truncate(time.Second),
		RefreshToken: refresh,
	}
}

func (o *OAuth) verifyIDToken(ctx context.Context, token *oauth2.Token) error {
	if o.verifier == nil {
		return nil
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return fmt.Errorf("no id_token in token response")
	}

	idToken, err := o.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return fmt.Errorf("failed to verify ID token: %w", err)
	}

	o.logger.Info("visitor signed in", "subject", idToken.Subject)
	return nil
}
