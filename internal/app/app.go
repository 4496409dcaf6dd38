package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ridgeline-dev/ridgeline-cli/internal/apiclient"
	"github.com/ridgeline-dev/ridgeline-cli/internal/auth"
	"github.com/ridgeline-dev/ridgeline-cli/internal/tokenstore"
)

// App wires the token store, API client, and login manager together for the
// command layer.
type App struct {
	cfg     *Config
	backend tokenstore.TokenStore // owns resources; pre-override
	store   tokenstore.TokenStore
	client  *apiclient.Client
	manager *auth.Manager
}

// Status describes the CLI's current authentication state.
type Status struct {
	// Token is the credential currently in effect, stored or overridden.
	Token string

	// TokenPresent reports whether a token is available at all.
	TokenPresent bool

	// Authenticated reports whether the backend accepted that token.
	Authenticated bool
}

// New creates a new App instance.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	backend, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}
	store := tokenstore.WithOverride(cfg.AuthToken, backend)

	client, err := apiclient.New(cfg.Domain, apiclient.WithAuthHeader(cfg.AuthHeader()))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	timeout := cfg.Login.Timeout
	if timeout < 0 {
		timeout = 0 // wait forever
	}
	manager, err := auth.NewManager(store, client, cfg.Domain,
		auth.WithLoginPort(cfg.Login.Port),
		auth.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth manager: %w", err)
	}

	return &App{
		cfg:     cfg,
		backend: backend,
		store:   store,
		client:  client,
		manager: manager,
	}, nil
}

// Login returns a token the backend accepts, running the browser flow when
// the stored one is missing or rejected.
func (a *App) Login(ctx context.Context) (string, error) {
	return a.manager.Login(ctx)
}

// LoginWithToken verifies a token supplied out-of-band and stores it.
func (a *App) LoginWithToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token is empty")
	}

	valid, err := a.client.VerifyToken(ctx, token)
	if err != nil {
		return fmt.Errorf("verifying token: %w", err)
	}
	if !valid {
		return errors.New("token rejected by backend")
	}

	if err := a.store.Save(ctx, token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// Logout removes the stored token. Logging out while not logged in succeeds.
func (a *App) Logout(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	slog.InfoContext(ctx, "logged out")
	return nil
}

// Status reads the current token, if any, and asks the backend whether it is
// still accepted.
func (a *App) Status(ctx context.Context) (*Status, error) {
	token, ok, err := a.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stored token: %w", err)
	}

	status := &Status{Token: token, TokenPresent: ok}
	if !ok {
		return status, nil
	}

	valid, err := a.client.VerifyToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("verifying token: %w", err)
	}
	status.Authenticated = valid
	return status, nil
}

// Token returns the current token without contacting the backend.
func (a *App) Token(ctx context.Context) (string, bool, error) {
	return a.store.Read(ctx)
}

// Close releases resources held by the token storage backend.
func (a *App) Close() error {
	if closer, ok := a.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
