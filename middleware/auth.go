package middleware

import (
	"net/http"
	"strings"

	"taskmanager/internal/apperrors"
	"taskmanager/internal/auth"
	"taskmanager/internal/response"
)

type Middleware struct {
	Auth     *auth.AuthService
	Sessions *auth.SessionStore
}

func NewMiddleware(authService *auth.AuthService, sessions *auth.SessionStore) *Middleware {
	return &Middleware{Auth: authService, Sessions: sessions}
}

// bearerToken returns the token from the Authorization header, then the session cookie
func (m *Middleware) bearerToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", apperrors.New(apperrors.CodeUnauthorized, "authorization header must use the Bearer scheme")
		}
		return strings.TrimSpace(token), nil
	}
	if m.Sessions != nil {
		if token := m.Sessions.Token(r); token != "" {
			return token, nil
		}
	}
	return "", apperrors.ErrUnauthorized
}

// AuthMiddleware resolves the caller and stores the user in the request context
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := m.bearerToken(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		user, err := m.Auth.ResolveIdentity(r.Context(), token)
		if err != nil {
			response.Error(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}
