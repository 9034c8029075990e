package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

// ConnectToMySQL opens a MySQL pool from a go-sql-driver DSN such as
// "user:pass@tcp(localhost:3306)/taskmanager".
func ConnectToMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	// RowsAffected must count matched rows, not changed rows, for the
	// ownership checks on update
	cfg.ClientFoundRows = true
	cfg.AllowNativePasswords = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	logrus.WithField("addr", cfg.Addr).Info("Connected to MySQL database")
	return db, nil
}

// InitializeMySQLSchema creates the users and tasks tables if they don't exist.
// Tables use a binary collation so username and category comparisons are
// case-sensitive as on the other backends.
func InitializeMySQLSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		username VARCHAR(150) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at VARCHAR(40) NOT NULL
	) DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS tasks (
		id VARCHAR(36) PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		due_date VARCHAR(40),
		priority BIGINT,
		category VARCHAR(255),
		user_id VARCHAR(36) NOT NULL,
		created_at VARCHAR(40) NOT NULL,
		updated_at VARCHAR(40) NOT NULL,
		INDEX idx_tasks_user_id (user_id, created_at),
		CONSTRAINT fk_tasks_user FOREIGN KEY (user_id) REFERENCES users(id)
	) DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`)
	if err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}

	logrus.Debug("MySQL schema initialized successfully")
	return nil
}
