package handlers

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"homeheroes/internal/identity"
	"homeheroes/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// IdentityContextKey carries the request's identity
const IdentityContextKey ContextKey = "identity"

const sessionCookieName = "session_token"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	ids     *identity.Service
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(ids *identity.Service, limiter *security.RateLimiter) *Middleware {
	return &Middleware{ids: ids, limiter: limiter}
}

// RequireSession resolves the request's identity from the session cookie.
// A request without a valid session gets an anonymous kiosk identity minted
// on the spot; the kiosk never needs an explicit login.
func (m *Middleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id identity.Identity

		cookie, err := r.Cookie(sessionCookieName)
		if err == nil {
			id, err = m.ids.ParseSession(cookie.Value)
		}
		if err != nil {
			id, err = m.ids.SignInAnonymously(r.Context())
			if err != nil {
				respondError(w, http.StatusServiceUnavailable, "Sign-in failed", err)
				return
			}
			m.setSessionCookie(w, r, id)
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, id)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin only lets allowlisted parent identities through. The check is
// advisory authorization: it protects this console's endpoints, not the
// store itself.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireSession(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if !m.ids.AllowList().IsPrivileged(id) {
			respondError(w, http.StatusForbidden, "Parent access required", nil)
			return
		}
		next(w, r)
	})
}

// RateLimit applies rate limiting to login endpoints
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !m.limiter.Allow(ip) {
			respondError(w, http.StatusTooManyRequests, "Too many attempts, try again later", nil)
			return
		}
		next(w, r)
	}
}

func (m *Middleware) setSessionCookie(w http.ResponseWriter, r *http.Request, id identity.Identity) {
	token, err := m.ids.IssueSession(id)
	if err != nil {
		log.Printf("Failed to issue session token: %v", err)
		return
	}
	http.SetCookie(w, security.CreateSessionCookie(r, sessionCookieName, token, time.Now().Add(24*time.Hour)))
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// IdentityFromContext retrieves the identity from the request context
func IdentityFromContext(ctx context.Context) identity.Identity {
	id, ok := ctx.Value(IdentityContextKey).(identity.Identity)
	if !ok {
		return identity.Identity{IsAnonymous: true}
	}
	return id
}
