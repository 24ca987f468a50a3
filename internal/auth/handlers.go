package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !m.Enabled() {
		writeError(w, http.StatusNotFound, "authentication is disabled")
		return
	}
	http.Redirect(w, r, m.LoginURL(), http.StatusFound)
}

func (m *Manager) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if !m.Enabled() {
		writeError(w, http.StatusNotFound, "authentication is disabled")
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeError(w, http.StatusBadRequest, "oauth error: "+e)
		return
	}
	s, err := m.Complete(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		m.logger.ErrorContext(r.Context(), "OAuth callback failed", "error", err)
		writeError(w, http.StatusBadGateway, "sign in failed")
		return
	}
	http.SetCookie(w, m.sessionCookie(s.ID, int(m.ttl.Seconds())))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (m *Manager) HandleMe(w http.ResponseWriter, r *http.Request) {
	s, err := m.Lookup(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.User)
}

func (m *Manager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	m.Logout(r)
	http.SetCookie(w, m.sessionCookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}

// Middleware rejects requests without a valid session when authentication
// is enabled.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		s, err := m.Lookup(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, s.User)))
	})
}
