package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/authdeck/internal/db"
	"github.com/authdeck/internal/domain"
	"github.com/authdeck/internal/guard"
	"github.com/authdeck/internal/session"
	"github.com/authdeck/internal/system"
)

// dashboardView is the template data for the protected page
type dashboardView struct {
	Email      string
	Message    string
	SigningOut bool
	Stats      *system.HostStats
	Events     []*db.AuthEvent
}

// showDashboard renders the protected page
func (s *Server) showDashboard(c *gin.Context) {
	rec, _ := currentSession(c)
	s.renderDashboard(c, rec.Email, "", false)
}

// postSignOut drives the session guard's sign-out action. Local sessions end
// with a Keycloak logout; federated sessions have no refresh token to revoke,
// their OAuth cookie is the whole session, so ending them means expiring it.
func (s *Server) postSignOut(c *gin.Context) {
	rec, _ := currentSession(c)

	var ender domain.SessionEnder = s.provider
	if isFederated(rec) {
		ender = federatedEnder{}
	}

	nav := &redirectNavigator{}
	g := guard.New(s.broadcaster, ender, nav, rec.RefreshToken, slog.Default())
	g.RedirectDelay = s.redirectDelay

	g.SignOut(c.Request.Context())

	if nav.target == "" {
		// Provider sign-out failed; stay on the page with the retry message
		s.audit(c, db.EventSignOutFailed, rec.Email, g.Message())
		s.renderDashboard(c, rec.Email, g.Message(), false)
		return
	}

	if isFederated(rec) {
		s.clearFederatedCookies(c)
	} else {
		s.store.Destroy(rec.SID)
		s.clearSessionCookie(c)
	}
	s.audit(c, db.EventSignOut, rec.Email, "")
	c.Redirect(http.StatusSeeOther, nav.target)
}

// isFederated reports whether a session came from the OAuth cookie rather
// than the local store
func isFederated(rec *session.Record) bool {
	return strings.HasPrefix(rec.SID, federatedSIDPrefix)
}

// federatedEnder implements domain.SessionEnder for cookie-backed federated
// sessions. There is nothing provider-side to call; clearing the cookie is
// the caller's job once the guard has run.
type federatedEnder struct{}

func (federatedEnder) SignOut(context.Context, string) error { return nil }

// clearFederatedCookies expires the go-pkgz/auth cookies
func (s *Server) clearFederatedCookies(c *gin.Context) {
	c.SetCookie("JWT", "", -1, "/", s.config.Session.CookieDomain, s.config.Session.SecureCookie, true)
	c.SetCookie("XSRF-TOKEN", "", -1, "/", s.config.Session.CookieDomain, s.config.Session.SecureCookie, false)
}

// renderDashboard renders the dashboard template with fresh stats and the
// recent auth event trail
func (s *Server) renderDashboard(c *gin.Context, email, message string, signingOut bool) {
	var events []*db.AuthEvent
	if s.database != nil {
		var err error
		events, err = s.database.RecentAuthEvents(10)
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "failed to load auth events", "error", err)
		}
	}

	c.HTML(http.StatusOK, "dashboard.html", dashboardView{
		Email:      email,
		Message:    message,
		SigningOut: signingOut,
		Stats:      s.collector.Collect(),
		Events:     events,
	})
}
