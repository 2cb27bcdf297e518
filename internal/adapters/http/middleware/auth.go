package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"motoclub/internal/authz"
	domainAccount "motoclub/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const accountContextKey contextKey = "account"

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "motoclub_session"

// Session represents an authenticated session.
type Session struct {
	AccountID string
	Email     string
	Name      string
	Role      string
	ExpiresAt time.Time
}

// sessionClaims is the JWT payload of a session cookie.
type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ErrInvalidSession is returned for tokens that fail signature, expiry or shape checks.
var ErrInvalidSession = errors.New("invalid session token")

// SessionManager signs and verifies HS256 session tokens.
// Sessions are stateless: logout clears the cookie, a stolen token stays valid until expiry.
type SessionManager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewSessionManager creates a manager for the given secret and lifetime.
// PRE: secret is non-empty
func NewSessionManager(secret string, lifetime time.Duration) (*SessionManager, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &SessionManager{secret: []byte(secret), lifetime: lifetime, now: time.Now}, nil
}

// Lifetime returns how long issued tokens stay valid.
func (sm *SessionManager) Lifetime() time.Duration {
	return sm.lifetime
}

// Create signs a token for the given account.
// PRE: accountID, email, role are non-empty
// POST: returns a token valid for the manager lifetime
func (sm *SessionManager) Create(accountID, email, name, role string) (string, error) {
	now := sm.now()
	claims := sessionClaims{
		Email: email,
		Name:  name,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sm.lifetime)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Get verifies a token and returns its session.
// POST: ok is false for tampered, expired or malformed tokens
func (sm *SessionManager) Get(token string) (Session, bool) {
	s, err := sm.parse(token)
	return s, err == nil
}

func (sm *SessionManager) parse(token string) (Session, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return sm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(sm.now),
	)
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidSession
	}
	if claims.Subject == "" || !domainAccount.IsValidRole(claims.Role) {
		return Session{}, ErrInvalidSession
	}
	s := Session{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Role:      claims.Role,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Auth returns middleware that extracts the session from the cookie and sets the account in context.
// It does NOT block unauthenticated requests. Use RequireRole for that.
func Auth(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err == nil && cookie.Value != "" {
				if session, ok := sessions.Get(cookie.Value); ok {
					r = r.WithContext(ContextWithSession(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole returns middleware that asks the enforcer whether the session role may reach the route.
// Anonymous requests are sent to the login page (401 for JSON clients); authenticated ones get 403.
func RequireRole(enforcer *authz.Enforcer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSessionFromContext(r.Context())
			if !ok {
				denyUnauthenticated(w, r)
				return
			}
			if !enforcer.Allowed(session.Role, r.URL.Path, r.Method) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(accountContextKey).(Session)
	return session, ok
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string, lifetime time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(lifetime.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// IsAdmin checks if the current session is an admin.
func IsAdmin(ctx context.Context) bool {
	session, ok := GetSessionFromContext(ctx)
	return ok && session.Role == domainAccount.RoleAdmin
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, accountContextKey, sess)
}
