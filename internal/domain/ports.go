package domain

import (
	"context"
	"time"
)

// Session is the result of a successful provider sign-in. Token lifecycle
// stays owned by the provider; this is just what the app needs to hold on to.
type Session struct {
	ID           string
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// AuthState is a snapshot of the authentication state delivered on the
// auth-state-change stream.
type AuthState struct {
	Authenticated bool      `json:"authenticated"`
	UserID        string    `json:"user_id,omitempty"`
	Email         string    `json:"email,omitempty"`
	At            time.Time `json:"at"`
}

// IdentityProvider is the external provider surface the auth form dispatches to.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
}

// FederatedStarter begins a federated OAuth sign-in and returns the URL the
// user agent should be sent to.
type FederatedStarter interface {
	BeginFederated(ctx context.Context, name string) (string, error)
}

// SessionEnder terminates the provider-side session.
type SessionEnder interface {
	SignOut(ctx context.Context, refreshToken string) error
}

// AuthStateStream delivers auth-state changes as they happen (push, not poll).
// The cancel func releases the subscription and closes the channel.
type AuthStateStream interface {
	Subscribe() (<-chan AuthState, func())
}

// Navigator abstracts page navigation so components stay independent of the
// transport (HTTP redirect, SSE-driven client navigation).
type Navigator interface {
	Push(path string)
	Replace(path string)
}
