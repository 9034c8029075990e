package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"taskmanager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	testDB, err := ConnectToSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, InitializeSchema(testDB))
	t.Cleanup(func() { testDB.Close() })
	return testDB
}

func createUser(t *testing.T, repo UserRepository, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hash-" + username}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func newTask(owner, title string) *models.Task {
	now := time.Now().UTC()
	return &models.Task{Title: title, UserID: owner, CreatedAt: now, UpdatedAt: now}
}

func TestSQLiteUserRepository(t *testing.T) {
	testUserRepository(t, NewSQLiteUserRepository(setupSQLite(t)))
}

func TestSQLiteTaskRepository(t *testing.T) {
	testDB := setupSQLite(t)
	testTaskRepository(t, NewSQLiteUserRepository(testDB), NewSQLiteTaskRepository(testDB))
}

// testUserRepository runs against any backend with an empty users table
func testUserRepository(t *testing.T, repo UserRepository) {
	ctx := context.Background()

	t.Run("CreateAndFind", func(t *testing.T) {
		user := createUser(t, repo, "alice")
		assert.NotEmpty(t, user.ID)

		byName, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)
		assert.Equal(t, "hash-alice", byName.PasswordHash)

		byID, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{Username: "alice", PasswordHash: "other"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := repo.FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

// testTaskRepository runs against any backend with empty tables
func testTaskRepository(t *testing.T, users UserRepository, repo TaskRepository) {
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")

	work := "work"
	home := "home"
	two := 2
	due := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	t1 := newTask(alice.ID, "Write report")
	t1.Category = &work
	t1.Priority = &two
	t1.DueDate = &due
	t2 := newTask(alice.ID, "Buy milk")
	t2.Category = &home
	t2.CreatedAt = t1.CreatedAt.Add(time.Millisecond)
	t3 := newTask(bob.ID, "Bob's task")
	t3.Category = &work

	for _, task := range []*models.Task{t1, t2, t3} {
		require.NoError(t, repo.Create(ctx, task))
		require.NotEmpty(t, task.ID)
	}

	t.Run("FindAllScopedToOwner", func(t *testing.T) {
		tasks, err := repo.FindAll(ctx, alice.ID, models.TaskFilter{})
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, t1.ID, tasks[0].ID)
		assert.Equal(t, t2.ID, tasks[1].ID)
	})

	t.Run("FindAllFilters", func(t *testing.T) {
		tasks, err := repo.FindAll(ctx, alice.ID, models.TaskFilter{Category: &work})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Write report", tasks[0].Title)

		tasks, err = repo.FindAll(ctx, alice.ID, models.TaskFilter{Priority: &two, DueDate: &due})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.True(t, due.Equal(*tasks[0].DueDate))

		other := due.Add(time.Second)
		tasks, err = repo.FindAll(ctx, alice.ID, models.TaskFilter{DueDate: &other})
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})

	t.Run("RoundTripsOptionalFields", func(t *testing.T) {
		found, err := repo.FindByIDAndOwner(ctx, t2.ID, alice.ID)
		require.NoError(t, err)
		assert.Nil(t, found.Description)
		assert.Nil(t, found.DueDate)
		assert.Nil(t, found.Priority)
		require.NotNil(t, found.Category)
		assert.Equal(t, "home", *found.Category)
	})

	t.Run("FindByIDAndOwnerRejectsOtherOwner", func(t *testing.T) {
		_, err := repo.FindByIDAndOwner(ctx, t1.ID, bob.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		desc := "quarterly"
		t1.Description = &desc
		t1.Category = nil
		t1.UpdatedAt = time.Now().UTC()
		require.NoError(t, repo.Update(ctx, t1))

		found, err := repo.FindByIDAndOwner(ctx, t1.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "quarterly", *found.Description)
		assert.Nil(t, found.Category)
		assert.Equal(t, 2, *found.Priority)
	})

	t.Run("UpdateForeignTask", func(t *testing.T) {
		stolen := *t3
		stolen.UserID = alice.ID
		stolen.Title = "mine now"
		assert.ErrorIs(t, repo.Update(ctx, &stolen), ErrNotFound)

		found, err := repo.FindByIDAndOwner(ctx, t3.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bob's task", found.Title)
	})

	t.Run("Delete", func(t *testing.T) {
		assert.ErrorIs(t, repo.DeleteByIDAndOwner(ctx, t3.ID, alice.ID), ErrNotFound)
		require.NoError(t, repo.DeleteByIDAndOwner(ctx, t2.ID, alice.ID))
		assert.ErrorIs(t, repo.DeleteByIDAndOwner(ctx, t2.ID, alice.ID), ErrNotFound)

		_, err := repo.FindByIDAndOwner(ctx, t2.ID, alice.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepositoryFactory_SQLite(t *testing.T) {
	factory := NewRepositoryFactory(setupSQLite(t), nil, "taskmanager_test")

	assert.IsType(t, &SQLiteUserRepository{}, factory.NewUserRepository())
	assert.IsType(t, &SQLiteTaskRepository{}, factory.NewTaskRepository())
	assert.NoError(t, factory.Ping(context.Background()))
}

func TestSQLiteTaskRepository_DuplicateID(t *testing.T) {
	testDB := setupSQLite(t)
	owner := createUser(t, NewSQLiteUserRepository(testDB), "alice")
	repo := NewSQLiteTaskRepository(testDB)
	ctx := context.Background()

	task := newTask(owner.ID, "once")
	require.NoError(t, repo.Create(ctx, task))

	again := newTask(owner.ID, "twice")
	again.ID = task.ID
	assert.ErrorIs(t, repo.Create(ctx, again), ErrDuplicate)
}

func TestRepositoryFactory_NoDatabase(t *testing.T) {
	factory := NewRepositoryFactory(nil, nil, "taskmanager_test")
	assert.Error(t, factory.Ping(context.Background()))
	assert.NoError(t, factory.Close(context.Background()))
}
