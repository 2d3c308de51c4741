package keycloak

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Nerzal/gocloak/v13"

	"github.com/authdeck/internal/domain"
)

// fakeAPI implements the api subset with canned responses
type fakeAPI struct {
	loginErr      error
	loginAdminErr error
	createUserErr error
	setPassErr    error
	logoutErr     error

	loginCalls      int
	createUserCalls int
	setPassCalls    int
	logoutCalls     int

	lastUsername string
	lastRefresh  string
}

func (f *fakeAPI) Login(_ context.Context, _, _, _, username, _ string) (*gocloak.JWT, error) {
	f.loginCalls++
	f.lastUsername = username
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &gocloak.JWT{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    300,
	}, nil
}

func (f *fakeAPI) LoginAdmin(_ context.Context, _, _, _ string) (*gocloak.JWT, error) {
	if f.loginAdminErr != nil {
		return nil, f.loginAdminErr
	}
	return &gocloak.JWT{AccessToken: "admin-access"}, nil
}

func (f *fakeAPI) CreateUser(_ context.Context, _, _ string, _ gocloak.User) (string, error) {
	f.createUserCalls++
	if f.createUserErr != nil {
		return "", f.createUserErr
	}
	return "new-user-id", nil
}

func (f *fakeAPI) SetPassword(_ context.Context, _, _, _, _ string, _ bool) error {
	f.setPassCalls++
	return f.setPassErr
}

func (f *fakeAPI) Logout(_ context.Context, _, _, _, refreshToken string) error {
	f.logoutCalls++
	f.lastRefresh = refreshToken
	return f.logoutErr
}

func testConfig() Config {
	return Config{
		BaseURL:      "http://keycloak.local",
		Realm:        "authdeck",
		ClientID:     "authdeck-web",
		ClientSecret: "secret",
	}
}

func TestSignInSuccess(t *testing.T) {
	client := &fakeAPI{}
	p := newWithClient(client, testConfig(), nil)

	sess, err := p.SignIn(context.Background(), "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if sess.Email != "user@example.com" {
		t.Errorf("unexpected email %q", sess.Email)
	}
	if sess.AccessToken != "access" || sess.RefreshToken != "refresh" {
		t.Errorf("unexpected tokens in session %+v", sess)
	}
	if sess.ID == "" {
		t.Error("expected a session ID")
	}
	if sess.ExpiresAt.IsZero() {
		t.Error("expected an expiry derived from the token response")
	}
	if client.lastUsername != "user@example.com" {
		t.Errorf("expected email used as username, got %q", client.lastUsername)
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	client := &fakeAPI{loginErr: &gocloak.APIError{Code: http.StatusUnauthorized, Message: "invalid_grant"}}
	p := newWithClient(client, testConfig(), nil)

	_, err := p.SignIn(context.Background(), "user@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials error, got %v", err)
	}
}

func TestSignInProviderDown(t *testing.T) {
	client := &fakeAPI{loginErr: errors.New("connection refused")}
	p := newWithClient(client, testConfig(), nil)

	_, err := p.SignIn(context.Background(), "user@example.com", "secret123")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected provider unavailable error, got %v", err)
	}
}

func TestSignUpCreatesUserAndSignsIn(t *testing.T) {
	client := &fakeAPI{}
	p := newWithClient(client, testConfig(), nil)

	sess, err := p.SignUp(context.Background(), "new@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if client.createUserCalls != 1 || client.setPassCalls != 1 {
		t.Errorf("expected create+set-password, got create=%d setPass=%d",
			client.createUserCalls, client.setPassCalls)
	}
	if client.loginCalls != 1 {
		t.Errorf("expected sign-in after sign-up, got %d login calls", client.loginCalls)
	}
	if sess.Email != "new@example.com" {
		t.Errorf("unexpected email %q", sess.Email)
	}
}

func TestSignUpEmailTaken(t *testing.T) {
	client := &fakeAPI{createUserErr: &gocloak.APIError{Code: http.StatusConflict, Message: "User exists"}}
	p := newWithClient(client, testConfig(), nil)

	_, err := p.SignUp(context.Background(), "taken@example.com", "secret123")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("expected email taken error, got %v", err)
	}
	if client.loginCalls != 0 {
		t.Error("must not attempt sign-in when user creation fails")
	}
}

func TestSignUpAdminLoginFailure(t *testing.T) {
	client := &fakeAPI{loginAdminErr: errors.New("admin down")}
	p := newWithClient(client, testConfig(), nil)

	_, err := p.SignUp(context.Background(), "new@example.com", "secret123")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected provider unavailable error, got %v", err)
	}
	if client.createUserCalls != 0 {
		t.Error("must not create user without an admin token")
	}
}

func TestSignOut(t *testing.T) {
	client := &fakeAPI{}
	p := newWithClient(client, testConfig(), nil)

	if err := p.SignOut(context.Background(), "refresh-token"); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if client.lastRefresh != "refresh-token" {
		t.Errorf("expected refresh token forwarded, got %q", client.lastRefresh)
	}

	client.logoutErr = errors.New("session gone")
	if err := p.SignOut(context.Background(), "refresh-token"); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected provider unavailable error, got %v", err)
	}
}
