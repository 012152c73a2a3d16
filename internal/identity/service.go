package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials means the local parent password did not match
	ErrInvalidCredentials = errors.New("invalid password")
	// ErrInvalidSession means the session token failed to parse or verify
	ErrInvalidSession = errors.New("invalid session token")
)

// Provider produces identities. The default provider mints anonymous kiosk
// identities locally; tests substitute failing providers to exercise the
// retry path.
type Provider interface {
	SignInAnonymously(ctx context.Context) (Identity, error)
}

// LocalProvider mints anonymous identities without any network dependency
type LocalProvider struct{}

func (LocalProvider) SignInAnonymously(ctx context.Context) (Identity, error) {
	return Identity{
		ID:          uuid.New().String(),
		Label:       "kiosk",
		IsAnonymous: true,
	}, nil
}

// Service wraps the identity provider with session tokens and the local
// parent password fallback.
type Service struct {
	provider           Provider
	allowList          *AllowList
	sessionSecret      []byte
	sessionDuration    time.Duration
	parentPasswordHash string
	parentLabel        string
}

// NewService creates an identity service. parentLabel is the label local
// password logins sign in as (the first configured admin email).
func NewService(provider Provider, allowList *AllowList, sessionSecret string, sessionDuration time.Duration, parentPasswordHash, parentLabel string) *Service {
	return &Service{
		provider:           provider,
		allowList:          allowList,
		sessionSecret:      []byte(sessionSecret),
		sessionDuration:    sessionDuration,
		parentPasswordHash: parentPasswordHash,
		parentLabel:        parentLabel,
	}
}

// AllowList exposes the privilege check
func (s *Service) AllowList() *AllowList {
	return s.allowList
}

// SignInAnonymously produces a kiosk identity, retrying once on failure
// before surfacing the error.
func (s *Service) SignInAnonymously(ctx context.Context) (Identity, error) {
	id, err := s.provider.SignInAnonymously(ctx)
	if err == nil {
		return id, nil
	}
	id, retryErr := s.provider.SignInAnonymously(ctx)
	if retryErr != nil {
		return Identity{}, fmt.Errorf("anonymous sign-in failed: %w", retryErr)
	}
	return id, nil
}

// LoginWithPassword signs in the configured parent using the local bcrypt
// password fallback. Disabled (always rejected) when no hash is configured.
func (s *Service) LoginWithPassword(password string) (Identity, error) {
	if s.parentPasswordHash == "" {
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.parentPasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{
		ID:    uuid.New().String(),
		Label: s.parentLabel,
	}, nil
}

// SignedInParent builds the identity for a completed OAuth login
func (s *Service) SignedInParent(email string) Identity {
	return Identity{
		ID:    uuid.New().String(),
		Label: email,
	}
}

type sessionClaims struct {
	Label     string `json:"label"`
	Anonymous bool   `json:"anon"`
	jwt.RegisteredClaims
}

// IssueSession creates a signed session token for the identity
func (s *Service) IssueSession(id Identity) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Label:     id.Label,
		Anonymous: id.IsAnonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionDuration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.sessionSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ParseSession verifies a session token and recovers the identity
func (s *Service) ParseSession(tokenString string) (Identity, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.sessionSecret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidSession
	}
	return Identity{
		ID:          claims.Subject,
		Label:       claims.Label,
		IsAnonymous: claims.Anonymous,
	}, nil
}
