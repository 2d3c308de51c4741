package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	loginPath     = "/login"
	dashboardPath = "/dashboard"

	ctxSessionKey = "session"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Mount federated OAuth routes (login, callbacks, logout).
	// go-pkgz/auth expects paths relative to its mount point, so the /auth
	// prefix is stripped before delegation.
	if s.authService != nil {
		authHandler, avatarHandler := s.authService.Handlers()
		if authHandler != nil {
			s.engine.Any("/auth/oauth/*path", wrapAuthHandler(authHandler, "/auth/oauth"))
		}
		if avatarHandler != nil {
			s.engine.Any("/avatar/*path", wrapAuthHandler(avatarHandler, "/avatar"))
		}
	}

	// Health check endpoint (no auth required)
	s.engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "authdeck",
		})
	})

	// Auth form
	s.engine.GET(loginPath, s.showLogin)
	s.engine.POST("/auth/signin", s.postSignIn)
	s.engine.POST("/auth/signup", s.postSignUp)
	s.engine.GET("/auth/federated/:name", s.startFederated)

	// Guarded pages and actions
	guarded := s.engine.Group("/")
	guarded.Use(s.requireSession())
	{
		guarded.GET(dashboardPath, s.showDashboard)
		guarded.POST("/auth/signout", s.postSignOut)
		guarded.GET("/auth/stream", s.streamAuthState)
		guarded.GET("/api/me", s.getCurrentUser)
	}

	// Root goes to the dashboard; the session middleware bounces
	// unauthenticated visitors to the login page from there
	s.engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, dashboardPath)
	})
}

// getCurrentUser returns the authenticated user info
func (s *Server) getCurrentUser(c *gin.Context) {
	rec, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": rec.UserID,
		"email":   rec.Email,
	})
}

// wrapAuthHandler wraps an http.Handler for use with Gin, stripping the prefix
func wrapAuthHandler(handler http.Handler, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		originalPath := c.Request.URL.Path
		c.Request.URL.Path = strings.TrimPrefix(originalPath, prefix)

		handler.ServeHTTP(c.Writer, c.Request)

		c.Request.URL.Path = originalPath
	}
}
