package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"taskmanager/internal/apperrors"
	"taskmanager/internal/response"
	"taskmanager/internal/validation"

	"github.com/sirupsen/logrus"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type AuthHandlers struct {
	Service  *AuthService
	Sessions *SessionStore
	log      logrus.FieldLogger
}

func NewAuthHandlers(service *AuthService, sessions *SessionStore, log logrus.FieldLogger) *AuthHandlers {
	return &AuthHandlers{Service: service, Sessions: sessions, log: log}
}

// decodeCredentials accepts a JSON body or a urlencoded form
func decodeCredentials(r *http.Request) (Credentials, error) {
	var creds Credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return creds, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid request format", err)
		}
		creds.Username = r.FormValue("username")
		creds.Password = r.FormValue("password")
	} else if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		return creds, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid request format", err)
	}

	if err := validation.Struct(creds); err != nil {
		return creds, err
	}
	return creds, nil
}

func (h *AuthHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	if _, err := h.Service.Register(r.Context(), creds.Username, creds.Password); err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.Message{Message: "User registered successfully"})
}

func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	token, err := h.Service.Authenticate(r.Context(), creds.Username, creds.Password)
	if err != nil {
		response.Error(w, err)
		return
	}

	if h.Sessions != nil {
		if err := h.Sessions.SaveToken(w, r, token); err != nil {
			h.log.WithError(err).Warn("LoginHandler: failed to save session cookie")
		}
	}

	response.JSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if h.Sessions != nil {
		if err := h.Sessions.Clear(w, r); err != nil {
			h.log.WithError(err).Warn("LogoutHandler: failed to clear session cookie")
		}
	}
	response.JSON(w, http.StatusOK, response.Message{Message: "Logged out"})
}

// MeHandler returns the user resolved by the auth middleware
func (h *AuthHandlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		response.Error(w, apperrors.ErrUnauthorized)
		return
	}
	response.JSON(w, http.StatusOK, user)
}
