// Package localserver runs the loopback HTTP server that receives the
// browser's login redirect carrying a freshly issued token.
package localserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ridgeline-dev/ridgeline-cli/internal/browser"
	"github.com/ridgeline-dev/ridgeline-cli/internal/observability/middleware"
)

// ErrServerClosed is returned by Start after the server has been shut down.
// A Server handles one login attempt; a new attempt needs a new Server.
var ErrServerClosed = errors.New("localserver: server closed")

const (
	// tokenParam is the query parameter the backend appends to the redirect.
	tokenParam = "jwt"

	// infoURL is where the browser is sent after delivering the token.
	infoURL = "https://docs.ridgeline.dev/cli/authentication"
)

// OpenFunc launches a URL in the user's browser.
type OpenFunc func(url string) error

type state int

const (
	stateIdle state = iota
	stateListening
	stateClosed
)

// Server listens on loopback for the login redirect and hands the received
// token to exactly one consumer.
type Server struct {
	domain string
	port   int
	open   OpenFunc

	mu        sync.Mutex
	state     state
	server    *http.Server
	boundPort int
	errCh     <-chan error

	publishOnce sync.Once
	tokenCh     chan string
}

type Option func(*Server) error

// New creates a Server for a login against the given domain,
// e.g. "https://app.ridgeline.dev".
func New(domain string, opts ...Option) (*Server, error) {
	if domain == "" {
		return nil, errors.New("domain is required")
	}

	s := &Server{
		domain:  strings.TrimRight(domain, "/"),
		open:    browser.Open,
		tokenCh: make(chan string, 1),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// WithPort fixes the listen port. The default 0 picks a free ephemeral port.
func WithPort(port int) Option {
	return func(s *Server) error {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid port %d", port)
		}
		s.port = port
		return nil
	}
}

// WithOpener replaces the browser launcher.
func WithOpener(open OpenFunc) Option {
	return func(s *Server) error {
		if open == nil {
			return errors.New("opener cannot be nil")
		}
		s.open = open
		return nil
	}
}

// Start binds the loopback listener, serves in the background, and opens the
// browser on the domain's login page with the bound port attached. Calling
// Start on a listening server is a no-op returning the same error channel.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors are sent to the returned channel, which carries at most one
// error before it is closed.
func (s *Server) Start(ctx context.Context) (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateListening:
		return s.errCh, nil
	case stateClosed:
		return nil, ErrServerClosed
	}

	// Startup phase: create the listener synchronously to catch port-in-use
	// errors immediately.
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	s.boundPort = listener.Addr().(*net.TCPAddr).Port

	s.server = &http.Server{
		Handler:      s.handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.errCh = errCh
	s.state = stateListening

	loginURL := fmt.Sprintf("%s/cli/login/?cliport=%d", s.domain, s.boundPort)
	if err := s.open(loginURL); err != nil {
		slog.WarnContext(ctx, "could not launch browser, open the login page manually",
			"url", loginURL, "error", err)
	} else {
		slog.InfoContext(ctx, "opened login page in browser", "url", loginURL)
	}

	return errCh, nil
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRedirect)

	return applyMiddlewares(mux,
		hideToken,
		middleware.Logging(slog.Default()),
		Recovery,
	)
}

// handleRedirect publishes the received token, empty or not, and sends the
// browser on to the documentation page. Only the first request's value is
// published; later requests still get the redirect.
func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	token := tokenFromContext(r.Context())
	s.publishOnce.Do(func() {
		s.tokenCh <- token
	})

	http.Redirect(w, r, infoURL, http.StatusFound)
}

// Token returns the channel the received token is published on. It carries at
// most one value and is never closed.
func (s *Server) Token() <-chan string {
	return s.tokenCh
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundPort
}

// Shutdown stops the server. It is idempotent and safe to call on a server
// that never started.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateListening {
		s.state = stateClosed
		return nil
	}
	s.state = stateClosed

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
