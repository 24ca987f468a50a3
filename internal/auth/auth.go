// Package auth signs users in with Google OAuth2 (authorization code with
// PKCE) and keeps their sessions in memory.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"rupaiya/internal/cache"
)

const (
	CookieName = "rupaiya_session"

	defaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	pendingLoginTTL    = 10 * time.Minute
	maxPendingLogins   = 1024
	maxSessions        = 4096
)

var (
	ErrNoSession    = errors.New("no valid session")
	ErrInvalidState = errors.New("invalid or expired oauth state")
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	SessionTTL   time.Duration
	// SecureCookie marks the session cookie Secure; set it behind TLS.
	SecureCookie bool
	// Endpoint and UserInfoURL default to Google's.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

type User struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type Session struct {
	ID        string    `json:"-"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Manager struct {
	oauth       *oauth2.Config
	userInfoURL string
	ttl         time.Duration
	secure      bool
	pending     *cache.LRUCache[string]
	sessions    *cache.LRUCache[Session]
	logger      *slog.Logger
}

// New returns a Manager. Without a client id authentication is disabled and
// Middleware lets every request through.
func New(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	m := &Manager{
		userInfoURL: cfg.UserInfoURL,
		ttl:         cfg.SessionTTL,
		secure:      cfg.SecureCookie,
		pending:     cache.NewLRUCache[string](maxPendingLogins, pendingLoginTTL),
		sessions:    cache.NewLRUCache[Session](maxSessions, cfg.SessionTTL),
		logger:      logger.With("component", "auth"),
	}
	if m.userInfoURL == "" {
		m.userInfoURL = defaultUserInfoURL
	}
	if cfg.ClientID == "" {
		return m
	}
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	m.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
	return m
}

func (m *Manager) Enabled() bool { return m.oauth != nil }

// Caches exposes the expiring caches for periodic cleanup.
func (m *Manager) Caches() []cache.Cleaner {
	return []cache.Cleaner{m.pending, m.sessions}
}

// LoginURL starts a login: it remembers a fresh state with its PKCE
// verifier and returns the provider URL to redirect to.
func (m *Manager) LoginURL() string {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	m.pending.Set(state, verifier)
	return m.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
}

// Complete exchanges the code for a token, fetches the profile and opens a
// session. Each state can be completed once.
func (m *Manager) Complete(ctx context.Context, state, code string) (Session, error) {
	verifier, ok := m.pending.Take(state)
	if !ok || state == "" {
		return Session{}, ErrInvalidState
	}
	tok, err := m.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return Session{}, fmt.Errorf("token exchange: %w", err)
	}
	user, err := m.fetchUser(ctx, tok)
	if err != nil {
		return Session{}, err
	}
	s := Session{ID: uuid.NewString(), User: user, ExpiresAt: time.Now().Add(m.ttl)}
	m.sessions.Set(s.ID, s)
	m.logger.InfoContext(ctx, "User signed in", "email", user.Email)
	return s, nil
}

func (m *Manager) fetchUser(ctx context.Context, tok *oauth2.Token) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.userInfoURL, nil)
	if err != nil {
		return User{}, err
	}
	resp, err := m.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return User{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}
	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return User{}, fmt.Errorf("decode userinfo: %w", err)
	}
	return u, nil
}

// Lookup returns the session named by the request cookie.
func (m *Manager) Lookup(r *http.Request) (Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Session{}, ErrNoSession
	}
	s, ok := m.sessions.Get(c.Value)
	if !ok {
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (m *Manager) Logout(r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		m.sessions.Delete(c.Value)
	}
}

func (m *Manager) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type ctxKey struct{}

// UserFromContext returns the signed in user set by Middleware.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok
}
