package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "taskmanager-session"
	tokenKey    = "access_token"
)

// SessionStore keeps the issued bearer token in a signed cookie so browser
// clients do not have to attach the Authorization header themselves.
// The cookie holds only the token; nothing is stored server-side.
type SessionStore struct {
	store *sessions.CookieStore
}

func NewSessionStore(secret []byte, maxAgeSeconds int, secure bool) *SessionStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
	store.MaxAge(maxAgeSeconds)
	return &SessionStore{store: store}
}

// SaveToken writes the token into the session cookie
func (s *SessionStore) SaveToken(w http.ResponseWriter, r *http.Request, token string) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values[tokenKey] = token
	return session.Save(r, w)
}

// Token returns the token from the session cookie, or ""
func (s *SessionStore) Token(r *http.Request) string {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	token, _ := session.Values[tokenKey].(string)
	return token
}

// Clear expires the session cookie
func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
