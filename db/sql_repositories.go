package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"taskmanager/models"
	"time"
)

// Fixed width so that stored timestamps sort lexicographically and compare
// by exact string equality.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(storedTimeLayout, s)
}

// sqlDialect holds what differs between the database/sql backends
type sqlDialect struct {
	isUniqueViolation func(error) bool
	// retry runs a write, repeating it while the backend reports transient contention
	retry func(ctx context.Context, op func() error) error
}

func runOnce(_ context.Context, op func() error) error {
	return op()
}

// sqlUserRepository is the database/sql implementation shared by the SQLite and
// MySQL user repositories
type sqlUserRepository struct {
	db      *sql.DB
	dialect sqlDialect
}

// Close closes the database connection
func (r *sqlUserRepository) Close() error {
	return r.db.Close()
}

// Create inserts a new user
func (r *sqlUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = GenerateID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`
	err := r.dialect.retry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.PasswordHash, formatTime(user.CreatedAt))
		return err
	})
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

// FindByUsername finds a user by username
func (r *sqlUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

// FindByID finds a user by ID
func (r *sqlUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, username, password_hash, created_at FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqlUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var createdAt string

	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("error parsing user created_at: %w", err)
	}
	return &user, nil
}

// sqlTaskRepository is the database/sql implementation shared by the SQLite and
// MySQL task repositories
type sqlTaskRepository struct {
	db      *sql.DB
	dialect sqlDialect
}

// Close closes the database connection
func (r *sqlTaskRepository) Close() error {
	return r.db.Close()
}

const taskColumns = `id, title, description, due_date, priority, category, user_id, created_at, updated_at`

// Create inserts a new task
func (r *sqlTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = GenerateID()
	}

	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	err := r.dialect.retry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query,
			task.ID, task.Title, nullableString(task.Description), nullableTime(task.DueDate), nullableInt(task.Priority),
			nullableString(task.Category), task.UserID, formatTime(task.CreatedAt), formatTime(task.UpdatedAt))
		return err
	})
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting task: %w", err)
	}
	return nil
}

// FindAll returns the owner's tasks matching every predicate in filter
func (r *sqlTaskRepository) FindAll(ctx context.Context, ownerID string, filter models.TaskFilter) ([]*models.Task, error) {
	conditions := []string{"user_id = ?"}
	args := []interface{}{ownerID}

	if filter.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, *filter.Category)
	}
	if filter.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, *filter.Priority)
	}
	if filter.DueDate != nil {
		conditions = append(conditions, "due_date = ?")
		args = append(args, formatTime(*filter.DueDate))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// FindByIDAndOwner finds a task by ID among the owner's tasks
func (r *sqlTaskRepository) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return task, err
}

// Update overwrites the mutable columns of an owned task
func (r *sqlTaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `UPDATE tasks SET title = ?, description = ?, due_date = ?, priority = ?, category = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
	var result sql.Result
	err := r.dialect.retry(ctx, func() (err error) {
		result, err = r.db.ExecContext(ctx, query,
			task.Title, nullableString(task.Description), nullableTime(task.DueDate), nullableInt(task.Priority),
			nullableString(task.Category), formatTime(task.UpdatedAt), task.ID, task.UserID)
		return err
	})
	if err != nil {
		return fmt.Errorf("error updating task: %w", err)
	}
	return requireAffected(result)
}

// DeleteByIDAndOwner deletes an owned task
func (r *sqlTaskRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	query := `DELETE FROM tasks WHERE id = ? AND user_id = ?`
	var result sql.Result
	err := r.dialect.retry(ctx, func() (err error) {
		result, err = r.db.ExecContext(ctx, query, id, ownerID)
		return err
	})
	if err != nil {
		return fmt.Errorf("error deleting task: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return int64(*i)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTask returns sql.ErrNoRows unwrapped so callers can map it
func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var description, dueDate, category sql.NullString
	var priority sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(&task.ID, &task.Title, &description, &dueDate, &priority, &category,
		&task.UserID, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("error scanning task: %w", err)
	}

	if description.Valid {
		task.Description = &description.String
	}
	if category.Valid {
		task.Category = &category.String
	}
	if priority.Valid {
		p := int(priority.Int64)
		task.Priority = &p
	}
	if dueDate.Valid {
		due, err := parseTime(dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("error parsing task due_date: %w", err)
		}
		task.DueDate = &due
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("error parsing task created_at: %w", err)
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("error parsing task updated_at: %w", err)
	}

	return &task, nil
}
