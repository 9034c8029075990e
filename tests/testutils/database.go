package testutils

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"taskmanager/db"
	"taskmanager/internal/config"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func SetupTestDatabase(t *testing.T) (*sql.DB, func()) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	testDB, err := db.ConnectToSQLite(dbPath)
	require.NoError(t, err)

	err = db.InitializeSchema(testDB)
	require.NoError(t, err)

	cleanup := func() {
		testDB.Close()
	}

	return testDB, cleanup
}

func SetupTestRepositoryFactory(t *testing.T) (*db.RepositoryFactory, func()) {
	testDB, cleanup := SetupTestDatabase(t)
	factory := db.NewRepositoryFactory(testDB, nil, "taskmanager_test")
	return factory, cleanup
}

func GetTestConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		DatabaseType:      config.SQLite,
		SQLitePath:        ":memory:",
		DatabaseName:      "taskmanager_test",
		JwtSecret:         "test_jwt_secret_key_for_testing_only",
		JwtKey:            []byte("test_jwt_secret_key_for_testing_only"),
		SessionSecret:     "test_session_secret_for_testing_only",
		TokenTTL:          time.Hour,
		TokenIssuer:       "taskmanager-test",
		BcryptCost:        bcrypt.MinCost,
		LogLevel:          "error",
		LogFormat:         "text",
		RateLimitRPS:      1000,
		RateLimitBurst:    1000,
		CORSAllowedOrigin: "*",
		ShutdownTimeout:   time.Second,
	}
}
