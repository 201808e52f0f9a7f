// Package providertest runs a fake OAuth2 + Graph-style identity provider
// for tests.
package providertest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	ClientID     = "test-client"
	ClientSecret = "test-secret"
)

// User is a profile the fake provider hands out for an access token.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Grant is a code the fake provider accepts.
type Grant struct {
	Verifier    string
	RedirectURI string
	AccessToken string
	ExpiresIn   int64
}

// Server is a programmable provider. Codes are single use, like a real
// authorization server.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	grants    map[string]Grant
	users     map[string]User
	tokenBody map[string]string // code -> raw token response body
	delay     time.Duration
	profileFn func(w http.ResponseWriter, token string) bool

	TokenCalls   atomic.Int64
	ProfileCalls atomic.Int64
}

func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		grants:    make(map[string]Grant),
		users:     make(map[string]User),
		tokenBody: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/access_token", s.token)
	mux.HandleFunc("/me", s.profile)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}

func (s *Server) AuthURL() string    { return s.URL + "/dialog/oauth" }
func (s *Server) TokenURL() string   { return s.URL + "/oauth/access_token" }
func (s *Server) ProfileURL() string { return s.URL + "/me?fields=id,name,email" }

// AddGrant makes code exchangeable once for g.AccessToken.
func (s *Server) AddGrant(code string, g Grant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[code] = g
}

// AddUser binds a profile to an access token.
func (s *Server) AddUser(accessToken string, u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[accessToken] = u
}

// SetRawTokenResponse makes the token endpoint answer code with body and
// status 200 verbatim.
func (s *Server) SetRawTokenResponse(code, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenBody[code] = body
}

// SetDelay stalls both endpoints, for timeout tests.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetProfileHook lets a test take over the profile response. Returning
// false falls through to the normal behaviour.
func (s *Server) SetProfileHook(fn func(w http.ResponseWriter, token string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileFn = fn
}

func (s *Server) wait(r *http.Request) bool {
	s.mu.Lock()
	d := s.delay
	s.mu.Unlock()
	if d == 0 {
		return true
	}
	select {
	case <-time.After(d):
		return true
	case <-r.Context().Done():
		return false
	}
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	s.TokenCalls.Add(1)
	if !s.wait(r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	code := r.PostForm.Get("code")

	s.mu.Lock()
	raw, hasRaw := s.tokenBody[code]
	g, ok := s.grants[code]
	delete(s.grants, code)
	s.mu.Unlock()

	if hasRaw {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(raw))
		return
	}

	switch {
	case r.PostForm.Get("client_id") != ClientID || r.PostForm.Get("client_secret") != ClientSecret:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
	case r.PostForm.Get("grant_type") != "authorization_code":
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	case !ok,
		r.PostForm.Get("code_verifier") != g.Verifier,
		g.RedirectURI != "" && r.PostForm.Get("redirect_uri") != g.RedirectURI:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
	default:
		body := map[string]any{
			"access_token": g.AccessToken,
			"token_type":   "bearer",
		}
		if g.ExpiresIn > 0 {
			body["expires_in"] = g.ExpiresIn
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	s.ProfileCalls.Add(1)
	if !s.wait(r) {
		return
	}

	const prefix = "Bearer "
	authz := r.Header.Get("Authorization")
	if len(authz) <= len(prefix) || authz[:len(prefix)] != prefix {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
		return
	}
	token := authz[len(prefix):]

	s.mu.Lock()
	hook := s.profileFn
	u, ok := s.users[token]
	s.mu.Unlock()

	if hook != nil && hook(w, token) {
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
