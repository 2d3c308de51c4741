package db

import (
	"time"

	"github.com/google/uuid"
)

// Auth event kinds
const (
	EventSignIn         = "sign_in"
	EventSignInFailed   = "sign_in_failed"
	EventSignUp         = "sign_up"
	EventSignUpFailed   = "sign_up_failed"
	EventFederated      = "federated"
	EventSignOut        = "sign_out"
	EventSignOutFailed  = "sign_out_failed"
	EventSessionExpired = "session_expired"
)

// AuthEvent is one recorded authentication attempt or outcome. Events are an
// operational audit trail; session state itself lives with the provider.
type AuthEvent struct {
	ID         string    `json:"id" db:"id"`
	Kind       string    `json:"kind" db:"kind"`
	Email      string    `json:"email,omitempty" db:"email"`
	RemoteAddr string    `json:"remote_addr,omitempty" db:"remote_addr"`
	Detail     string    `json:"detail,omitempty" db:"detail"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// NewAuthEvent creates an auth event with a fresh ID and timestamp
func NewAuthEvent(kind, email, remoteAddr, detail string) *AuthEvent {
	return &AuthEvent{
		ID:         uuid.New().String(),
		Kind:       kind,
		Email:      email,
		RemoteAddr: remoteAddr,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
}
