package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"taskmanager/db"
	"taskmanager/internal/logging"
	"taskmanager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func newCursor(t *testing.T, docs ...interface{}) *mongo.Cursor {
	t.Helper()
	c, err := mongo.NewCursorFromDocuments(docs, nil, nil)
	require.NoError(t, err)
	return c
}

func TestMigrate_CopiesUsersThenTasks(t *testing.T) {
	sqliteDB, err := db.ConnectToSQLite(filepath.Join(t.TempDir(), "migrated.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitializeSchema(sqliteDB))
	t.Cleanup(func() { sqliteDB.Close() })

	ctx := context.Background()
	log := logging.Discard()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	due := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	priority := 3
	category := "work"

	alice := models.User{ID: "u-alice", Username: "alice", PasswordHash: "hash-a", CreatedAt: created}
	bob := models.User{ID: "u-bob", Username: "bob", PasswordHash: "hash-b", CreatedAt: created}

	users := db.NewSQLiteUserRepository(sqliteDB)
	migrated, skipped := migrateUsers(ctx, newCursor(t, alice, bob), users, log)
	assert.Equal(t, 2, migrated)
	assert.Equal(t, 0, skipped)

	// A second run skips what is already there
	migrated, skipped = migrateUsers(ctx, newCursor(t, alice), users, log)
	assert.Equal(t, 0, migrated)
	assert.Equal(t, 1, skipped)

	stored, err := users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-alice", stored.ID)
	assert.Equal(t, "hash-a", stored.PasswordHash)

	tasks := db.NewSQLiteTaskRepository(sqliteDB)
	task := models.Task{
		ID:        "t-1",
		Title:     "Report",
		DueDate:   &due,
		Priority:  &priority,
		Category:  &category,
		UserID:    "u-alice",
		CreatedAt: created,
		UpdatedAt: created,
	}
	orphan := models.Task{ID: "t-2", Title: "Orphan", UserID: "u-missing", CreatedAt: created, UpdatedAt: created}
	migrated, skipped = migrateTasks(ctx, newCursor(t, task, orphan), tasks, log)
	assert.Equal(t, 1, migrated)
	assert.Equal(t, 0, skipped)

	// A second run skips existing tasks; the orphan still fails
	migrated, skipped = migrateTasks(ctx, newCursor(t, task, orphan), tasks, log)
	assert.Equal(t, 0, migrated)
	assert.Equal(t, 1, skipped)

	got, err := tasks.FindByIDAndOwner(ctx, "t-1", "u-alice")
	require.NoError(t, err)
	assert.Equal(t, "Report", got.Title)
	assert.Equal(t, 3, *got.Priority)
	assert.True(t, due.Equal(*got.DueDate))
}
