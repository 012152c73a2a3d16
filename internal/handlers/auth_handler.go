package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"homeheroes/internal/identity"
	"homeheroes/internal/security"
)

// AuthHandler signs consoles in: anonymous kiosk sessions, the local parent
// password fallback, and Google OAuth for parents.
type AuthHandler struct {
	ids         *identity.Service
	oauthConfig *oauth2.Config
	userInfoURL string
}

// NewAuthHandler creates a new auth handler. oauthConfig may be nil when
// Google login is not configured.
func NewAuthHandler(ids *identity.Service, oauthConfig *oauth2.Config) *AuthHandler {
	return &AuthHandler{
		ids:         ids,
		oauthConfig: oauthConfig,
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

// Login signs the parent in with the local password fallback
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.ids.LoginWithPassword(req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid password", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Login failed", err)
		return
	}

	h.issueSession(w, r, id)
}

// Logout clears the session; the next request gets a fresh anonymous one
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r, sessionCookieName))
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// StartOAuth begins the Google login flow
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	if h.oauthConfig == nil || h.oauthConfig.ClientID == "" {
		respondError(w, http.StatusBadRequest, "Google login not configured", nil)
		return
	}

	state := security.GenerateSessionID()
	http.SetCookie(w, security.CreateSessionCookie(r, "oauth_state", state, time.Now().Add(10*time.Minute)))

	authURL := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback completes the Google login flow and issues a session
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauthConfig == nil || h.oauthConfig.ClientID == "" {
		respondError(w, http.StatusBadRequest, "Google login not configured", nil)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "Missing authorization code", nil)
		return
	}
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		respondError(w, http.StatusBadRequest, "Invalid OAuth state", nil)
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, "oauth_state"))

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		respondError(w, http.StatusBadGateway, "OAuth exchange failed", err)
		return
	}

	email, err := h.fetchEmail(r, token)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to fetch user info", err)
		return
	}

	// The session is issued for any Google account; whether it is
	// privileged is decided per request by the allowlist.
	h.issueSession(w, r, h.ids.SignedInParent(email))
}

func (h *AuthHandler) fetchEmail(r *http.Request, token *oauth2.Token) (string, error) {
	client := h.oauthConfig.Client(r.Context(), token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	if info.Email == "" {
		return "", errors.New("userinfo response had no email")
	}
	return info.Email, nil
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, id identity.Identity) {
	token, err := h.ids.IssueSession(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create session", err)
		return
	}
	http.SetCookie(w, security.CreateSessionCookie(r, sessionCookieName, token, time.Now().Add(24*time.Hour)))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"label":      id.Label,
		"anonymous":  id.IsAnonymous,
		"privileged": h.ids.AllowList().IsPrivileged(id),
	})
}
