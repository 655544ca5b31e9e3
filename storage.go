package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports that no row matched the requested id.
var ErrNotFound = errors.New("to-do not found")

const todosSchema = `
CREATE TABLE IF NOT EXISTS todos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    description TEXT,
    completed INTEGER NOT NULL DEFAULT 0
);`

// Store owns the SQLite file. Every session runs on the one shared
// underlying connection, so concurrent handlers serialize on the pool
// rather than each opening their own OS-level connection.
type Store struct {
	sqlDB *sql.DB
}

// OpenStore opens the database at path and ensures the todos table
// exists. Table creation is idempotent; there is no migration support.
func OpenStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(todosSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create todos table: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Session is one request's unit of work. Close rolls back anything not
// committed, so a deferred Close releases the session on every exit path.
type Session struct {
	tx   *sql.Tx
	done bool
}

// OpenSession begins a transaction bound to the shared connection.
func (s *Store) OpenSession(ctx context.Context) (*Session, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}
	return &Session{tx: tx}, nil
}

// Commit makes the session's writes durable.
func (s *Session) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.tx.Commit()
}

// Close releases the session, discarding uncommitted writes.
func (s *Session) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// CreateTodo inserts one row and returns it with the storage-assigned id.
func (s *Session) CreateTodo(ctx context.Context, input TodoInput) (Todo, error) {
	result, err := s.tx.ExecContext(
		ctx,
		`INSERT INTO todos (title, description, completed) VALUES (?, ?, ?)`,
		input.Title, input.Description, input.Completed,
	)
	if err != nil {
		return Todo{}, fmt.Errorf("create todo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return Todo{
		Id:          int(id),
		Title:       input.Title,
		Description: input.Description,
		Completed:   input.Completed,
	}, nil
}

// ListTodos returns all rows in storage order.
func (s *Session) ListTodos(ctx context.Context) ([]Todo, error) {
	rows, err := s.tx.QueryContext(
		ctx,
		`SELECT id, title, description, completed FROM todos`,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]Todo, 0)
	for rows.Next() {
		var todo Todo
		if err := rows.Scan(&todo.Id, &todo.Title, &todo.Description, &todo.Completed); err != nil {
			return nil, fmt.Errorf("list todos: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// GetTodo returns one row by id.
func (s *Session) GetTodo(ctx context.Context, id int) (Todo, error) {
	row := s.tx.QueryRowContext(
		ctx,
		`SELECT id, title, description, completed FROM todos WHERE id = ?`,
		id,
	)
	var todo Todo
	err := row.Scan(&todo.Id, &todo.Title, &todo.Description, &todo.Completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Todo{}, ErrNotFound
		}
		return Todo{}, fmt.Errorf("get todo: %w", err)
	}
	return todo, nil
}

// UpdateTodo overwrites every field of the row with the payload values.
// This is full replacement, not a partial patch.
func (s *Session) UpdateTodo(ctx context.Context, id int, input TodoInput) (Todo, error) {
	result, err := s.tx.ExecContext(
		ctx,
		`UPDATE todos SET title = ?, description = ?, completed = ? WHERE id = ?`,
		input.Title, input.Description, input.Completed, id,
	)
	if err != nil {
		return Todo{}, fmt.Errorf("update todo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Todo{}, fmt.Errorf("update todo: %w", err)
	}
	if affected == 0 {
		return Todo{}, ErrNotFound
	}
	return Todo{
		Id:          id,
		Title:       input.Title,
		Description: input.Description,
		Completed:   input.Completed,
	}, nil
}

// DeleteTodo removes one row by id.
func (s *Session) DeleteTodo(ctx context.Context, id int) error {
	result, err := s.tx.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
