package db

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

var mysqlDialect = sqlDialect{
	isUniqueViolation: isMySQLUniqueViolation,
	retry:             runOnce,
}

func isMySQLUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// MySQLUserRepository implements the UserRepository interface for MySQL
type MySQLUserRepository struct {
	sqlUserRepository
}

// NewMySQLUserRepository creates a new MySQLUserRepository
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{sqlUserRepository{db: db, dialect: mysqlDialect}}
}

// MySQLTaskRepository implements the TaskRepository interface for MySQL
type MySQLTaskRepository struct {
	sqlTaskRepository
}

// NewMySQLTaskRepository creates a new MySQLTaskRepository
func NewMySQLTaskRepository(db *sql.DB) *MySQLTaskRepository {
	return &MySQLTaskRepository{sqlTaskRepository{db: db, dialect: mysqlDialect}}
}
