// Package guard implements the session guard: it watches the auth-state
// stream, sends unauthenticated visitors back to the login page, and drives
// the explicit sign-out action.
package guard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/authdeck/internal/domain"
)

// DefaultRedirectDelay is how long the signing-out message stays visible
// before navigating back to the login page
const DefaultRedirectDelay = 1500 * time.Millisecond

// DefaultLoginPath is where unauthenticated visitors are sent
const DefaultLoginPath = "/login"

// Guard watches auth state for one mounted page
type Guard struct {
	stream   domain.AuthStateStream
	provider domain.SessionEnder
	nav      domain.Navigator
	logger   *slog.Logger

	// RedirectDelay and LoginPath may be overridden before Mount/SignOut
	RedirectDelay time.Duration
	LoginPath     string

	refreshToken string

	mu         sync.Mutex
	signingOut bool
	message    string

	cancel func()
	done   chan struct{}
}

// New creates a guard for a session identified by its provider refresh token
func New(stream domain.AuthStateStream, provider domain.SessionEnder, nav domain.Navigator, refreshToken string, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		stream:        stream,
		provider:      provider,
		nav:           nav,
		logger:        logger,
		RedirectDelay: DefaultRedirectDelay,
		LoginPath:     DefaultLoginPath,
		refreshToken:  refreshToken,
	}
}

// Mount subscribes to the auth-state stream. Whenever a state without an
// authenticated user arrives and no sign-out is in progress, the visitor is
// redirected to the login page.
func (g *Guard) Mount() {
	ch, cancel := g.stream.Subscribe()
	g.cancel = cancel
	g.done = make(chan struct{})

	go func() {
		defer close(g.done)
		for state := range ch {
			if state.Authenticated {
				continue
			}
			if g.SigningOut() {
				// The sign-out action owns the redirect
				continue
			}
			g.logger.Info("unauthenticated state on guarded page, redirecting", "target", g.LoginPath)
			g.nav.Replace(g.LoginPath)
		}
	}()
}

// Unmount releases the stream subscription and waits for the watcher to stop
func (g *Guard) Unmount() {
	if g.cancel == nil {
		return
	}
	g.cancel()
	g.cancel = nil
	<-g.done
}

// SignOut invokes provider sign-out. On success it waits a fixed delay and
// navigates back to the login page; on failure the signing-out flag is reset
// and a retry message is left for the page.
func (g *Guard) SignOut(ctx context.Context) {
	g.mu.Lock()
	g.signingOut = true
	g.message = "Signing out..."
	g.mu.Unlock()

	if err := g.provider.SignOut(ctx, g.refreshToken); err != nil {
		g.logger.WarnContext(ctx, "provider sign-out failed", "error", err)
		g.mu.Lock()
		g.signingOut = false
		g.message = domain.UserMessage(domain.WrapSignOutFailed(err))
		g.mu.Unlock()
		return
	}

	time.Sleep(g.RedirectDelay)
	g.nav.Replace(g.LoginPath)
}

// SigningOut reports whether a sign-out is in progress
func (g *Guard) SigningOut() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.signingOut
}

// Message returns the current status message
func (g *Guard) Message() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.message
}
