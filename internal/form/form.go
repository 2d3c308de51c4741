// Package form implements the authentication form: field state, client-side
// validation, mode toggling and dispatch to the identity provider.
package form

import (
	"context"
	"log/slog"
	"time"

	"github.com/authdeck/internal/domain"
	"github.com/authdeck/internal/validation"
)

// Mode selects which provider operation a submit dispatches to
type Mode string

const (
	ModeSignIn Mode = "signin"
	ModeSignUp Mode = "signup"
)

// Field names used as keys in the validation error map
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// DefaultRedirectDelay is how long the success message stays visible before
// navigating to the protected page. The delay is not abortable.
const DefaultRedirectDelay = 1500 * time.Millisecond

// DefaultSuccessPath is where a successful submit navigates to
const DefaultSuccessPath = "/dashboard"

// Form holds the auth form state. It is driven by a single goroutine per
// request; there is no internal locking.
type Form struct {
	Email    string
	Password string
	Errors   map[string]string
	Mode     Mode

	// Transient UI state, reset at the start of each operation
	Loading          bool
	FederatedLoading bool
	Redirecting      bool
	Message          string
	Success          bool

	// LastSession is set after a successful submit so the caller can
	// establish the local session.
	LastSession *domain.Session

	// RedirectDelay and SuccessPath may be overridden before Submit
	RedirectDelay time.Duration
	SuccessPath   string

	provider  domain.IdentityProvider
	federated domain.FederatedStarter
	nav       domain.Navigator
	logger    *slog.Logger
}

// New creates an auth form in sign-in mode
func New(provider domain.IdentityProvider, federated domain.FederatedStarter, nav domain.Navigator, logger *slog.Logger) *Form {
	if logger == nil {
		logger = slog.Default()
	}
	return &Form{
		Errors:        map[string]string{},
		Mode:          ModeSignIn,
		RedirectDelay: DefaultRedirectDelay,
		SuccessPath:   DefaultSuccessPath,
		provider:      provider,
		federated:     federated,
		nav:           nav,
		logger:        logger,
	}
}

// SetEmail updates the email field and clears its validation error only
func (f *Form) SetEmail(email string) {
	f.Email = email
	delete(f.Errors, FieldEmail)
}

// SetPassword updates the password field and clears its validation error only
func (f *Form) SetPassword(password string) {
	f.Password = password
	delete(f.Errors, FieldPassword)
}

// ToggleMode switches between sign-in and sign-up. Field values and
// validation errors survive the toggle; the status message does not.
func (f *Form) ToggleMode() {
	if f.Mode == ModeSignIn {
		f.Mode = ModeSignUp
	} else {
		f.Mode = ModeSignIn
	}
	f.Message = ""
	f.Success = false
}

// Submit validates the form and dispatches to the provider operation selected
// by the current mode. Validation failures populate per-field errors and the
// provider is never called. Provider failures surface as the status message.
// On success the form is cleared and, after a fixed delay, navigation to the
// protected page is requested.
func (f *Form) Submit(ctx context.Context) {
	f.resetTransient()

	f.Errors = f.validate()
	if len(f.Errors) > 0 {
		return
	}

	f.Loading = true
	defer func() { f.Loading = false }()

	var sess *domain.Session
	var err error
	switch f.Mode {
	case ModeSignUp:
		sess, err = f.provider.SignUp(ctx, f.Email, f.Password)
	default:
		sess, err = f.provider.SignIn(ctx, f.Email, f.Password)
	}
	if err != nil {
		f.logger.WarnContext(ctx, "provider dispatch failed", "mode", f.Mode, "error", err)
		f.Message = domain.UserMessage(err)
		return
	}

	f.LastSession = sess
	f.Success = true
	if f.Mode == ModeSignUp {
		f.Message = "Account created. Redirecting..."
	} else {
		f.Message = "Signed in. Redirecting..."
	}

	// Successful submit resets the form to empty
	f.Email = ""
	f.Password = ""
	f.Errors = map[string]string{}

	f.Redirecting = true
	time.Sleep(f.RedirectDelay)
	f.nav.Push(f.SuccessPath)
}

// StartFederated begins a federated sign-in. It carries its own loading flag
// so the email/password path is never blocked by it.
func (f *Form) StartFederated(ctx context.Context, name string) {
	f.Message = ""
	f.Success = false

	if f.federated == nil {
		f.Message = domain.UserMessage(domain.ErrFederatedNotConfigured)
		return
	}

	f.FederatedLoading = true
	defer func() { f.FederatedLoading = false }()

	url, err := f.federated.BeginFederated(ctx, name)
	if err != nil {
		f.logger.WarnContext(ctx, "federated sign-in failed to start", "provider", name, "error", err)
		f.Message = domain.UserMessage(err)
		return
	}

	f.Redirecting = true
	f.nav.Push(url)
}

// resetTransient clears the per-operation UI state
func (f *Form) resetTransient() {
	f.Message = ""
	f.Success = false
	f.Redirecting = false
	f.LastSession = nil
}

// validate recomputes the full validation error map for the current fields
func (f *Form) validate() map[string]string {
	errs := map[string]string{}
	if err := validation.ValidateEmail(f.Email); err != nil {
		errs[FieldEmail] = err.Error()
	}
	if err := validation.ValidatePassword(f.Password); err != nil {
		errs[FieldPassword] = err.Error()
	}
	return errs
}
