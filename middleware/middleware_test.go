package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskmanager/db"
	"taskmanager/internal/apperrors"
	"taskmanager/internal/auth"
	"taskmanager/internal/logging"
	"taskmanager/internal/response"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

type authFixture struct {
	middleware *Middleware
	service    *auth.AuthService
	sessions   *auth.SessionStore
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	sqliteDB, err := db.ConnectToSQLite(filepath.Join(t.TempDir(), "mw.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitializeSchema(sqliteDB))
	t.Cleanup(func() { sqliteDB.Close() })

	tokens := auth.NewTokenIssuer([]byte("middleware-test-key"), time.Hour, "taskmanager-test")
	service := auth.NewAuthService(db.NewSQLiteUserRepository(sqliteDB), tokens, bcrypt.MinCost, logging.Discard())
	sessions := auth.NewSessionStore([]byte("middleware-session-key"), 3600, false)

	_, err = service.Register(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	return &authFixture{middleware: NewMiddleware(service, sessions), service: service, sessions: sessions}
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Write([]byte(user.Username))
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	f := newAuthFixture(t)
	token, err := f.service.Authenticate(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	handler := f.middleware.AuthMiddleware(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestAuthMiddleware_SessionCookie(t *testing.T) {
	f := newAuthFixture(t)
	token, err := f.service.Authenticate(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	login := httptest.NewRecorder()
	require.NoError(t, f.sessions.SaveToken(login, httptest.NewRequest(http.MethodPost, "/auth/login", nil), token))
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.middleware.AuthMiddleware(http.HandlerFunc(echoUser)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	f := newAuthFixture(t)
	handler := f.middleware.AuthMiddleware(http.HandlerFunc(echoUser))

	cases := []struct {
		name   string
		header string
		code   apperrors.Code
	}{
		{"Missing", "", apperrors.CodeUnauthorized},
		{"WrongScheme", "Basic YWxpY2U6cHcx", apperrors.CodeUnauthorized},
		{"EmptyBearer", "Bearer ", apperrors.CodeUnauthorized},
		{"Garbage", "Bearer not-a-jwt", apperrors.CodeInvalidToken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	handler := RateLimiter(rate.NewLimiter(rate.Every(time.Hour), 2))(okHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, apperrors.CodeRateLimited, decodeError(t, rec).Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput(&buf, "info", "text")
	handler := Recovery(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeError(t, rec).Error)
	assert.Contains(t, buf.String(), "handler panic recovered")
}

func TestLoggingMiddleware_RecordsRecoveredPanic(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput(&buf, "info", "json")
	handler := LoggingMiddleware(log)(Recovery(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/tasks/abc", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var access map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[1], &access))
	assert.Equal(t, "DELETE", access["method"])
	assert.Equal(t, "/tasks/abc", access["path"])
	assert.EqualValues(t, http.StatusInternalServerError, access["status"])
	assert.Equal(t, logrus.ErrorLevel.String(), access["level"])
}

func TestSetupCORS(t *testing.T) {
	t.Run("Preflight", func(t *testing.T) {
		called := false
		handler := SetupCORS("*")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/tasks", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, called)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})

	t.Run("ExplicitOrigin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SetupCORS("https://app.example.com")(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))

		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput(&buf, "info", "json")
	handler := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tasks/abc", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/tasks/abc", entry["path"])
	assert.EqualValues(t, http.StatusNotFound, entry["status"])
	assert.Equal(t, logrus.WarnLevel.String(), entry["level"])
}

func TestMetricsMiddleware(t *testing.T) {
	metrics := NewMetrics()
	r := mux.NewRouter()
	r.Use(metrics.Middleware)
	r.HandleFunc("/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["id"] == "missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler())

	for _, id := range []string{"a", "b", "missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tasks/"+id, nil))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	lines := strings.Split(rec.Body.String(), "\n")
	assert.Contains(t, lines, `taskmanager_http_requests_total{method="GET",route="/tasks/{id}",status="200"} 2`)
	assert.Contains(t, lines, `taskmanager_http_requests_total{method="GET",route="/tasks/{id}",status="404"} 1`)
	assert.Contains(t, lines, `taskmanager_http_errors_total{route="/tasks/{id}"} 1`)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
