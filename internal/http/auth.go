package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/authdeck/internal/db"
	"github.com/authdeck/internal/domain"
	"github.com/authdeck/internal/form"
	"github.com/authdeck/internal/session"
)

// credentialsRequest is the submitted auth form
type credentialsRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// redirectNavigator records the navigation a component requested so the
// handler can answer with the matching HTTP redirect
type redirectNavigator struct {
	target string
}

func (n *redirectNavigator) Push(path string)    { n.target = path }
func (n *redirectNavigator) Replace(path string) { n.target = path }

// loginView is the template data for the login page
type loginView struct {
	Email            string
	Mode             form.Mode
	Errors           map[string]string
	Message          string
	Success          bool
	FederatedEnabled bool
	Federated        []string
}

// showLogin renders the auth form
func (s *Server) showLogin(c *gin.Context) {
	f := s.newForm(nil)
	if c.Query("mode") == string(form.ModeSignUp) {
		f.ToggleMode()
	}
	s.renderLogin(c, http.StatusOK, f)
}

// postSignIn drives a sign-in submit
func (s *Server) postSignIn(c *gin.Context) {
	s.handleSubmit(c, form.ModeSignIn)
}

// postSignUp drives a sign-up submit
func (s *Server) postSignUp(c *gin.Context) {
	s.handleSubmit(c, form.ModeSignUp)
}

// handleSubmit binds the submitted credentials, runs the form and answers
// with either a redirect (established session) or the re-rendered form.
func (s *Server) handleSubmit(c *gin.Context, mode form.Mode) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.WarnContext(c.Request.Context(), "invalid auth request", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format"})
		return
	}

	nav := &redirectNavigator{}
	f := s.newForm(nav)
	if mode == form.ModeSignUp {
		f.ToggleMode()
	}
	f.SetEmail(req.Email)
	f.SetPassword(req.Password)

	f.Submit(c.Request.Context())

	if f.LastSession != nil {
		cookie, err := s.store.Create(f.LastSession)
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "failed to establish session", "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to establish session"})
			return
		}
		s.setSessionCookie(c, cookie)
		s.audit(c, successEventKind(mode), f.LastSession.Email, "")
		c.Redirect(http.StatusSeeOther, nav.target)
		return
	}

	// Provider rejections are audited; pure validation failures are not
	if len(f.Errors) == 0 && f.Message != "" {
		s.audit(c, failureEventKind(mode), req.Email, f.Message)
	}
	s.renderLogin(c, http.StatusOK, f)
}

// startFederated begins a federated OAuth sign-in
func (s *Server) startFederated(c *gin.Context) {
	nav := &redirectNavigator{}
	f := s.newForm(nav)

	f.StartFederated(c.Request.Context(), c.Param("name"))

	if nav.target == "" {
		s.renderLogin(c, http.StatusOK, f)
		return
	}

	s.audit(c, db.EventFederated, "", c.Param("name"))
	c.Redirect(http.StatusSeeOther, nav.target)
}

// BeginFederated resolves a provider name from the registry into the OAuth
// login URL. Implements domain.FederatedStarter for the form component.
func (s *Server) BeginFederated(_ context.Context, name string) (string, error) {
	if s.authService == nil {
		return "", domain.ErrFederatedNotConfigured
	}
	for _, p := range s.config.Federated.Providers {
		if p.Name == name {
			from := url.QueryEscape(s.config.BaseURL + dashboardPath)
			return fmt.Sprintf("/auth/oauth/%s/login?from=%s", name, from), nil
		}
	}
	return "", domain.NewDomainError(domain.ErrFederatedNotConfigured.Code,
		fmt.Sprintf("Unknown sign-in provider %q", name), nil)
}

// newForm builds an auth form wired to the server's provider and delay
func (s *Server) newForm(nav domain.Navigator) *form.Form {
	if nav == nil {
		nav = &redirectNavigator{}
	}
	f := form.New(s.provider, s, nav, slog.Default())
	f.RedirectDelay = s.redirectDelay
	return f
}

// renderLogin renders the login template from form state
func (s *Server) renderLogin(c *gin.Context, status int, f *form.Form) {
	c.HTML(status, "login.html", loginView{
		Email:            f.Email,
		Mode:             f.Mode,
		Errors:           f.Errors,
		Message:          f.Message,
		Success:          f.Success,
		FederatedEnabled: s.authService != nil,
		Federated:        s.config.FederatedProviderNames(),
	})
}

// setSessionCookie sets the local session cookie
func (s *Server) setSessionCookie(c *gin.Context, value string) {
	maxAge := int(s.config.Session.TTL.Seconds())
	c.SetCookie(session.CookieName, value, maxAge, "/", s.config.Session.CookieDomain, s.config.Session.SecureCookie, true)
}

// clearSessionCookie removes the local session cookie
func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetCookie(session.CookieName, "", -1, "/", s.config.Session.CookieDomain, s.config.Session.SecureCookie, true)
}

// audit records an auth event; failures are logged, never surfaced
func (s *Server) audit(c *gin.Context, kind, email, detail string) {
	if s.database == nil {
		return
	}
	event := db.NewAuthEvent(kind, email, c.ClientIP(), detail)
	if err := s.database.InsertAuthEvent(event); err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to record auth event", "kind", kind, "error", err)
	}
}

func successEventKind(mode form.Mode) string {
	if mode == form.ModeSignUp {
		return db.EventSignUp
	}
	return db.EventSignIn
}

func failureEventKind(mode form.Mode) string {
	if mode == form.ModeSignUp {
		return db.EventSignUpFailed
	}
	return db.EventSignInFailed
}
