package db

import (
	"database/sql"
	"errors"

	"taskmanager/internal/util"

	"github.com/mattn/go-sqlite3"
)

// sqliteDialect retries writes that hit "database is locked"
var sqliteDialect = sqlDialect{
	isUniqueViolation: isSQLiteUniqueViolation,
	retry:             util.RetryOnLock,
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// SQLiteUserRepository implements the UserRepository interface for SQLite
type SQLiteUserRepository struct {
	sqlUserRepository
}

// NewSQLiteUserRepository creates a new SQLiteUserRepository
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{sqlUserRepository{db: db, dialect: sqliteDialect}}
}

// SQLiteTaskRepository implements the TaskRepository interface for SQLite
type SQLiteTaskRepository struct {
	sqlTaskRepository
}

// NewSQLiteTaskRepository creates a new SQLiteTaskRepository
func NewSQLiteTaskRepository(db *sql.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{sqlTaskRepository{db: db, dialect: sqliteDialect}}
}
