package db

import (
	"context"
	"database/sql"
	"errors"
	"taskmanager/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record violates a uniqueness constraint")
)

// Repository defines a common interface for all repositories
type Repository interface {
	Close() error
}

// UserRepository defines the interface for credential store operations
type UserRepository interface {
	Repository
	// Create inserts the user. Returns ErrDuplicate when the username is taken.
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// TaskRepository defines the interface for task store operations.
// Every lookup is scoped by owner.
type TaskRepository interface {
	Repository
	Create(ctx context.Context, task *models.Task) error
	FindAll(ctx context.Context, ownerID string, filter models.TaskFilter) ([]*models.Task, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Task, error)
	// Update overwrites the mutable columns of an owned task. Returns ErrNotFound
	// when no row matched.
	Update(ctx context.Context, task *models.Task) error
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error
}

// RepositoryFactory creates repositories based on the database type
type RepositoryFactory struct {
	SQLiteDB    *sql.DB
	MySQLDB     *sql.DB
	MongoClient *mongo.Client
	DBName      string
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(sqliteDB *sql.DB, mongoClient *mongo.Client, dbName string) *RepositoryFactory {
	return &RepositoryFactory{
		SQLiteDB:    sqliteDB,
		MongoClient: mongoClient,
		DBName:      dbName,
	}
}

// NewMySQLRepositoryFactory creates a repository factory backed by MySQL
func NewMySQLRepositoryFactory(mysqlDB *sql.DB, dbName string) *RepositoryFactory {
	return &RepositoryFactory{MySQLDB: mysqlDB, DBName: dbName}
}

// NewUserRepository creates a new user repository
func (f *RepositoryFactory) NewUserRepository() UserRepository {
	switch {
	case f.SQLiteDB != nil:
		return NewSQLiteUserRepository(f.SQLiteDB)
	case f.MySQLDB != nil:
		return NewMySQLUserRepository(f.MySQLDB)
	default:
		return NewMongoUserRepository(f.MongoClient, f.DBName, UsersCollection)
	}
}

// NewTaskRepository creates a new task repository
func (f *RepositoryFactory) NewTaskRepository() TaskRepository {
	switch {
	case f.SQLiteDB != nil:
		return NewSQLiteTaskRepository(f.SQLiteDB)
	case f.MySQLDB != nil:
		return NewMySQLTaskRepository(f.MySQLDB)
	default:
		return NewMongoTaskRepository(f.MongoClient, f.DBName, TasksCollection)
	}
}

// Ping checks that the configured database answers
func (f *RepositoryFactory) Ping(ctx context.Context) error {
	if f.SQLiteDB != nil {
		return f.SQLiteDB.PingContext(ctx)
	}
	if f.MySQLDB != nil {
		return f.MySQLDB.PingContext(ctx)
	}
	if f.MongoClient != nil {
		return f.MongoClient.Ping(ctx, nil)
	}
	return errors.New("no database configured")
}

// Close releases the underlying connection pool shared by every repository
func (f *RepositoryFactory) Close(ctx context.Context) error {
	if f.SQLiteDB != nil {
		return f.SQLiteDB.Close()
	}
	if f.MySQLDB != nil {
		return f.MySQLDB.Close()
	}
	if f.MongoClient != nil {
		return f.MongoClient.Disconnect(ctx)
	}
	return nil
}

// GenerateID generates a unique ID for a record
func GenerateID() string {
	return uuid.New().String()
}
