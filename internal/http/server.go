package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pkgz/auth"
	"github.com/go-pkgz/auth/avatar"
	"github.com/go-pkgz/auth/token"

	"github.com/authdeck/internal/config"
	"github.com/authdeck/internal/db"
	"github.com/authdeck/internal/domain"
	"github.com/authdeck/internal/form"
	"github.com/authdeck/internal/session"
	"github.com/authdeck/internal/system"
)

// AuthProvider is the identity-provider surface the server wires into the
// form and guard components
type AuthProvider interface {
	domain.IdentityProvider
	domain.SessionEnder
}

// Server wraps the HTTP server
type Server struct {
	config        *config.Config
	database      *db.DB
	provider      AuthProvider
	store         *session.Store
	broadcaster   *session.Broadcaster
	collector     *system.Collector
	engine        *gin.Engine
	authService   *auth.Service
	redirectDelay time.Duration
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, database *db.DB, provider AuthProvider, store *session.Store, broadcaster *session.Broadcaster) *Server {
	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.Default()

	// Middleware - order matters
	engine.Use(securityHeadersMiddleware())
	engine.Use(corsMiddleware(cfg))
	engine.Use(cacheControlMiddleware())
	engine.Use(loggerMiddleware())

	if cfg.TemplatesGlob != "" {
		engine.LoadHTMLGlob(cfg.TemplatesGlob)
	}

	// Federated OAuth layer
	var authService *auth.Service
	if cfg.Federated.Enabled {
		authService = initAuthService(cfg)
	}

	server := &Server{
		config:        cfg,
		database:      database,
		provider:      provider,
		store:         store,
		broadcaster:   broadcaster,
		collector:     system.NewCollector(cfg.StatsDiskPath),
		engine:        engine,
		authService:   authService,
		redirectDelay: form.DefaultRedirectDelay,
	}

	server.setupRoutes()

	return server
}

// initAuthService initializes go-pkgz/auth with the providers from the registry
func initAuthService(cfg *config.Config) *auth.Service {
	opts := auth.Opts{
		SecretReader: token.SecretFunc(func(id string) (string, error) {
			return cfg.Session.Secret, nil
		}),
		TokenDuration:  time.Hour * 24,
		CookieDuration: cfg.Session.TTL,
		Issuer:         "authdeck",
		URL:            cfg.BaseURL + "/auth/oauth", // handlers are mounted under /auth/oauth
		AvatarStore:    avatar.NewNoOp(),
		SecureCookies:  cfg.Session.SecureCookie,
		DisableXSRF:    true,
		Validator: token.ValidatorFunc(func(_ string, claims token.Claims) bool {
			if claims.User == nil {
				slog.Warn("JWT validation failed: no user in claims")
				return false
			}
			return true
		}),
	}

	authService := auth.NewService(opts)
	for _, p := range cfg.Federated.Providers {
		authService.AddProvider(p.Name, p.ClientID, p.ClientSecret)
	}

	return authService
}

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 60 * time.Second
	idleTimeout  = 120 * time.Second
)

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.ServerAddress
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:           addr,
		Handler:        s.engine,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	return server.ListenAndServe()
}

// securityHeadersMiddleware adds security-related HTTP headers
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.Request.TLS != nil {
			c.Writer.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// corsMiddleware adds CORS headers with configurable origin
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.CORS.AllowedOrigins {
			if origin == allowedOrigin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// cacheControlMiddleware disables caching on auth and API endpoints
func cacheControlMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/auth/") || path == loginPath || path == dashboardPath {
			c.Writer.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Writer.Header().Set("Pragma", "no-cache")
		}

		c.Next()
	}
}

// loggerMiddleware logs HTTP requests
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		slog.InfoContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"remote_addr", c.Request.RemoteAddr,
		)
		c.Next()
	}
}

// federatedSIDPrefix marks session records backed by the OAuth JWT cookie
// rather than the local store
const federatedSIDPrefix = "federated:"

// requireSession requires either a local session cookie or a federated JWT
// cookie. Browsers asking for HTML are redirected to the login page; API
// clients get a 401.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rec, ok := s.localSession(c); ok {
			c.Set(ctxSessionKey, rec)
			c.Next()
			return
		}

		if user, ok := s.federatedUser(c); ok {
			c.Set(ctxSessionKey, &session.Record{
				SID:    federatedSIDPrefix + user.ID,
				UserID: user.ID,
				Email:  user.Name,
			})
			c.Next()
			return
		}

		if wantsHTML(c) {
			c.Redirect(http.StatusSeeOther, loginPath)
		} else {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		}
		c.Abort()
	}
}

// localSession resolves the local session cookie, if any
func (s *Server) localSession(c *gin.Context) (*session.Record, bool) {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil || cookie == "" {
		return nil, false
	}
	rec, err := s.store.Validate(cookie)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "session cookie rejected", "error", err)
		return nil, false
	}
	return rec, true
}

// federatedUser resolves the go-pkgz/auth JWT cookie, if any
func (s *Server) federatedUser(c *gin.Context) (token.User, bool) {
	if s.authService == nil {
		return token.User{}, false
	}

	var userInfo token.User
	var authenticated bool

	// Wrap the Gin handler for the go-pkgz/auth middleware
	authMiddleware := s.authService.Middleware()
	handler := authMiddleware.Trace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, err := token.GetUserInfo(r); err == nil && u.ID != "" {
			userInfo = u
			authenticated = true
		}
		c.Request = r
	}))
	handler.ServeHTTP(c.Writer, c.Request)

	return userInfo, authenticated
}

// currentSession extracts the session record set by requireSession
func currentSession(c *gin.Context) (*session.Record, bool) {
	if v, exists := c.Get(ctxSessionKey); exists {
		if rec, ok := v.(*session.Record); ok {
			return rec, true
		}
	}
	return nil, false
}

// wantsHTML reports whether the client is a browser page load
func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
