// Package keycloak adapts a Keycloak realm to the identity-provider surface
// the auth components depend on.
package keycloak

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"

	"github.com/authdeck/internal/domain"
)

// Config holds the Keycloak connection settings
type Config struct {
	BaseURL      string
	Realm        string
	ClientID     string
	ClientSecret string
	// Admin credentials are needed for sign-up (user creation is an admin
	// operation in Keycloak)
	AdminUser     string
	AdminPassword string
	AdminRealm    string
	// IssuerURL enables OIDC verification of returned ID tokens when set
	IssuerURL string
}

// api is the subset of the gocloak client the provider uses; narrowed so
// tests can substitute a fake.
type api interface {
	Login(ctx context.Context, clientID, clientSecret, realm, username, password string) (*gocloak.JWT, error)
	LoginAdmin(ctx context.Context, username, password, realm string) (*gocloak.JWT, error)
	CreateUser(ctx context.Context, accessToken, realm string, user gocloak.User) (string, error)
	SetPassword(ctx context.Context, accessToken, userID, realm, password string, temporary bool) error
	Logout(ctx context.Context, clientID, clientSecret, realm, refreshToken string) error
}

// Provider implements domain.IdentityProvider and domain.SessionEnder against
// a Keycloak realm
type Provider struct {
	client   api
	cfg      Config
	verifier *oidc.IDTokenVerifier
	logger   *slog.Logger
}

// New creates a Keycloak provider. When cfg.IssuerURL is set the OIDC
// discovery document is fetched and ID tokens are verified on every sign-in.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AdminRealm == "" {
		cfg.AdminRealm = "master"
	}

	p := &Provider{
		client: gocloak.NewClient(cfg.BaseURL),
		cfg:    cfg,
		logger: logger,
	}

	if cfg.IssuerURL != "" {
		oidcProvider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
		if err != nil {
			return nil, domain.WrapProviderUnavailable(err)
		}
		p.verifier = oidcProvider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
		logger.Info("OIDC token verification enabled", "issuer", cfg.IssuerURL)
	}

	return p, nil
}

func newWithClient(client api, cfg Config, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{client: client, cfg: cfg, logger: logger}
}

// SignIn performs a direct-grant login
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	token, err := p.client.Login(ctx, p.cfg.ClientID, p.cfg.ClientSecret, p.cfg.Realm, email, password)
	if err != nil {
		return nil, p.mapError(ctx, "sign-in", err)
	}
	return p.sessionFromToken(ctx, email, token)
}

// SignUp creates the user via the admin API, sets a permanent password and
// signs the new user in
func (p *Provider) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	admin, err := p.client.LoginAdmin(ctx, p.cfg.AdminUser, p.cfg.AdminPassword, p.cfg.AdminRealm)
	if err != nil {
		p.logger.ErrorContext(ctx, "admin login failed", "error", err)
		return nil, domain.WrapProviderUnavailable(err)
	}

	userID, err := p.client.CreateUser(ctx, admin.AccessToken, p.cfg.Realm, gocloak.User{
		Username:      gocloak.StringP(email),
		Email:         gocloak.StringP(email),
		Enabled:       gocloak.BoolP(true),
		EmailVerified: gocloak.BoolP(false),
	})
	if err != nil {
		return nil, p.mapError(ctx, "sign-up", err)
	}

	if err := p.client.SetPassword(ctx, admin.AccessToken, userID, p.cfg.Realm, password, false); err != nil {
		return nil, p.mapError(ctx, "set-password", err)
	}

	p.logger.InfoContext(ctx, "user created", "userID", userID)
	return p.SignIn(ctx, email, password)
}

// SignOut invalidates the provider-side session for a refresh token
func (p *Provider) SignOut(ctx context.Context, refreshToken string) error {
	if err := p.client.Logout(ctx, p.cfg.ClientID, p.cfg.ClientSecret, p.cfg.Realm, refreshToken); err != nil {
		return p.mapError(ctx, "sign-out", err)
	}
	return nil
}

// sessionFromToken builds a domain session from a token response, verifying
// the ID token when a verifier is configured
func (p *Provider) sessionFromToken(ctx context.Context, email string, token *gocloak.JWT) (*domain.Session, error) {
	sess := &domain.Session{
		ID:           uuid.New().String(),
		Email:        email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}

	if p.verifier != nil && token.IDToken != "" {
		idToken, err := p.verifier.Verify(ctx, token.IDToken)
		if err != nil {
			return nil, domain.WrapTokenInvalid(err)
		}
		var claims struct {
			Subject string `json:"sub"`
			Email   string `json:"email"`
		}
		if err := idToken.Claims(&claims); err != nil {
			return nil, domain.WrapTokenInvalid(err)
		}
		sess.UserID = claims.Subject
		if claims.Email != "" {
			sess.Email = claims.Email
		}
	}

	return sess, nil
}

// mapError translates gocloak failures into domain errors
func (p *Provider) mapError(ctx context.Context, op string, err error) error {
	var apiErr *gocloak.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusBadRequest:
			// Keycloak answers invalid direct-grant credentials with 401,
			// disabled accounts with 400
			p.logger.WarnContext(ctx, "provider rejected credentials", "op", op, "code", apiErr.Code)
			return domain.WrapInvalidCredentials(err)
		case http.StatusConflict:
			return domain.WrapEmailTaken("", err)
		}
	}
	p.logger.ErrorContext(ctx, "provider call failed", "op", op, "error", err)
	return domain.WrapProviderUnavailable(err)
}
