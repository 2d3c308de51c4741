package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/authdeck/internal/domain"
)

// CookieName is the local session cookie. Federated sessions use the cookie
// set by the OAuth layer instead.
const CookieName = "authdeck_session"

const tokenIssuer = "authdeck"

// Record is an active session as tracked by the store
type Record struct {
	SID          string
	UserID       string
	Email        string
	RefreshToken string
	ExpiresAt    time.Time
}

// Store issues and validates signed session cookies and keeps the registry of
// active sessions. Creating or destroying a session publishes the matching
// auth state on the broadcaster.
type Store struct {
	secret      []byte
	ttl         time.Duration
	broadcaster *Broadcaster

	mu     sync.Mutex
	active map[string]*Record
}

// NewStore creates a session store
func NewStore(secret string, ttl time.Duration, broadcaster *Broadcaster) *Store {
	return &Store{
		secret:      []byte(secret),
		ttl:         ttl,
		broadcaster: broadcaster,
		active:      make(map[string]*Record),
	}
}

// Create registers a session for a provider sign-in result and returns the
// signed cookie value
func (s *Store) Create(sess *domain.Session) (string, error) {
	expiresAt := time.Now().Add(s.ttl)
	if !sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(expiresAt) {
		// Never outlive the provider-side session
		expiresAt = sess.ExpiresAt
	}

	rec := &Record{
		SID:          sess.ID,
		UserID:       sess.UserID,
		Email:        sess.Email,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    expiresAt,
	}

	claims := jwt.MapClaims{
		"sid":   rec.SID,
		"sub":   rec.UserID,
		"email": rec.Email,
		"iss":   tokenIssuer,
		"exp":   expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.active[rec.SID] = rec
	s.mu.Unlock()

	s.broadcaster.Publish(domain.AuthState{
		Authenticated: true,
		UserID:        rec.UserID,
		Email:         rec.Email,
	})

	return signed, nil
}

// Validate parses a session cookie and returns the matching active record.
// A well-signed token whose session is no longer registered (signed out or
// swept) yields ErrSessionExpired.
func (s *Store) Validate(cookie string) (*Record, error) {
	token, err := jwt.Parse(cookie, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.WrapTokenInvalid(err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return nil, domain.ErrTokenInvalid
	}

	s.mu.Lock()
	rec, ok := s.active[sid]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionExpired
	}
	if time.Now().After(rec.ExpiresAt) {
		s.expire(sid)
		return nil, domain.ErrSessionExpired
	}
	return rec, nil
}

// Destroy removes a session from the registry and publishes a signed-out state
func (s *Store) Destroy(sid string) {
	s.mu.Lock()
	_, ok := s.active[sid]
	delete(s.active, sid)
	s.mu.Unlock()

	if ok {
		s.broadcaster.Publish(domain.AuthState{Authenticated: false})
	}
}

// Sweep removes expired sessions and publishes a signed-out state for each.
// Returns the removed records so the caller can record the expiries.
func (s *Store) Sweep() []*Record {
	now := time.Now()

	s.mu.Lock()
	var expired []*Record
	for sid, rec := range s.active {
		if now.After(rec.ExpiresAt) {
			expired = append(expired, rec)
			delete(s.active, sid)
		}
	}
	s.mu.Unlock()

	for range expired {
		s.broadcaster.Publish(domain.AuthState{Authenticated: false})
	}
	return expired
}

// ActiveCount reports the number of registered sessions
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func (s *Store) expire(sid string) {
	s.mu.Lock()
	_, ok := s.active[sid]
	delete(s.active, sid)
	s.mu.Unlock()

	if ok {
		s.broadcaster.Publish(domain.AuthState{Authenticated: false})
	}
}
