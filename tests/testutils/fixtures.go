package testutils

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterAndLogin creates the user and returns a bearer token for it
func RegisterAndLogin(t *testing.T, ts *TestServer, username, password string) string {
	t.Helper()
	creds := Credentials{Username: username, Password: password}

	resp := ts.POST("/auth/register", creds)
	AssertJSONResponse(t, resp, http.StatusCreated, nil)

	var token TokenResponse
	AssertJSONResponse(t, ts.POST("/auth/login", creds), http.StatusOK, &token)
	require.NotEmpty(t, token.AccessToken)
	return token.AccessToken
}

func CreateTestTask(title string) map[string]interface{} {
	return map[string]interface{}{"title": title}
}

func CreateTestTaskWith(title, category string, priority int, due *time.Time) map[string]interface{} {
	task := map[string]interface{}{
		"title":    title,
		"category": category,
		"priority": priority,
	}
	if due != nil {
		task["due_date"] = due.UTC().Format(time.RFC3339)
	}
	return task
}
