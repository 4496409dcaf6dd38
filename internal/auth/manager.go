// Package auth drives the CLI's browser-redirect login flow.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ridgeline-dev/ridgeline-cli/internal/localserver"
	"github.com/ridgeline-dev/ridgeline-cli/internal/tokenstore"
)

var (
	// ErrNoTokenReceived means the browser called back without a token. The
	// backend redirected, but the login did not produce a credential.
	ErrNoTokenReceived = errors.New("auth: browser login returned no token")

	// ErrLoginTimeout means the browser never called back within the
	// configured window.
	ErrLoginTimeout = errors.New("auth: login timed out")
)

const (
	// DefaultTimeout bounds how long Login waits for the browser redirect.
	DefaultTimeout = 5 * time.Minute

	shutdownTimeout = 5 * time.Second
)

// Verifier reports whether the backend currently accepts a token.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (bool, error)
}

// Manager obtains a valid token: from storage when possible, through a
// browser login when not.
type Manager struct {
	store    tokenstore.TokenStore
	verifier Verifier
	domain   string
	port     int
	timeout  time.Duration
	open     localserver.OpenFunc
}

type Option func(*Manager) error

// NewManager creates a Manager that logs in against the given domain.
func NewManager(store tokenstore.TokenStore, verifier Verifier, domain string, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("token store is required")
	}
	if verifier == nil {
		return nil, errors.New("verifier is required")
	}
	if domain == "" {
		return nil, errors.New("domain is required")
	}

	m := &Manager{
		store:    store,
		verifier: verifier,
		domain:   domain,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WithLoginPort fixes the redirect server's port. The default 0 picks a free
// ephemeral port.
func WithLoginPort(port int) Option {
	return func(m *Manager) error {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid port %d", port)
		}
		m.port = port
		return nil
	}
}

// WithTimeout bounds the wait for the browser redirect. 0 waits forever.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) error {
		if timeout < 0 {
			return errors.New("timeout cannot be negative")
		}
		m.timeout = timeout
		return nil
	}
}

// WithOpener replaces the browser launcher used by the redirect server.
func WithOpener(open localserver.OpenFunc) Option {
	return func(m *Manager) error {
		if open == nil {
			return errors.New("opener cannot be nil")
		}
		m.open = open
		return nil
	}
}

// Login returns a token the backend accepts. A stored token that still
// verifies is returned as-is; otherwise a browser login runs and the received
// token is stored for next time. Failure to store is logged, not returned:
// the login itself succeeded.
func (m *Manager) Login(ctx context.Context) (string, error) {
	token, ok, err := m.store.Read(ctx)
	if err != nil {
		slog.WarnContext(ctx, "could not read stored token", "error", err)
	}
	if ok {
		valid, err := m.verifier.VerifyToken(ctx, token)
		if err != nil {
			return "", fmt.Errorf("verifying stored token: %w", err)
		}
		if valid {
			slog.DebugContext(ctx, "stored token is valid, skipping browser login")
			return token, nil
		}
		slog.InfoContext(ctx, "stored token no longer valid, starting browser login")
	}

	token, err = m.browserLogin(ctx)
	if err != nil {
		return "", err
	}

	if err := m.store.Save(ctx, token); err != nil {
		slog.WarnContext(ctx, "could not store token, next invocation will log in again", "error", err)
	}

	return token, nil
}

// browserLogin runs the redirect server for a single login attempt and waits
// for the browser to deliver a token.
func (m *Manager) browserLogin(ctx context.Context) (string, error) {
	opts := []localserver.Option{localserver.WithPort(m.port)}
	if m.open != nil {
		opts = append(opts, localserver.WithOpener(m.open))
	}
	server, err := localserver.New(m.domain, opts...)
	if err != nil {
		return "", err
	}
	defer func() {
		// Shutdown must run even when ctx is already canceled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(ctx, "redirect server shutdown failed", "error", err)
		}
	}()

	serveErr, err := server.Start(ctx)
	if err != nil {
		return "", fmt.Errorf("starting redirect server: %w", err)
	}

	var timeoutCh <-chan time.Time
	if m.timeout > 0 {
		timer := time.NewTimer(m.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err, received := <-serveErr:
		if !received {
			return "", errors.New("redirect server stopped unexpectedly")
		}
		return "", fmt.Errorf("redirect server failed: %w", err)
	case <-timeoutCh:
		return "", ErrLoginTimeout
	case token := <-server.Token():
		if token == "" {
			return "", ErrNoTokenReceived
		}
		return token, nil
	}
}
