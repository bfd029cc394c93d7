package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/eaglesec/eagle-access/internal/store"
)

const userIDLength = 8

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// UserRepository provides PostgreSQL-backed user registry storage.
type UserRepository struct {
	pool       *Pool
	datasetDir string
}

// NewUserRepository creates a new PostgreSQL user repository. datasetDir is
// where per-user sample image directories live; it may be empty to disable
// dataset directory management.
func NewUserRepository(pool *Pool, datasetDir string) *UserRepository {
	return &UserRepository{pool: pool, datasetDir: datasetDir}
}

// Create registers a new user and returns the generated ID. Names that
// normalize to an existing registration fail with ErrDuplicateName.
func (r *UserRepository) Create(ctx context.Context, name string) (string, error) {
	userID := uuid.NewString()[:userIDLength]
	nameKey := store.NormalizeName(name)

	_, err := r.pool.Exec(ctx,
		"INSERT INTO users (user_id, name, name_key) VALUES ($1, $2, $3)",
		userID, name, nameKey,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", store.ErrDuplicateName
		}
		return "", fmt.Errorf("insert user: %w", err)
	}

	r.ensureDatasetDirs(name)
	return userID, nil
}

// List returns all registered users as a map of user ID to display name.
func (r *UserRepository) List(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT user_id, name FROM users ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// Delete removes a user by ID or name together with their embeddings and
// dataset directory. It reports whether a matching user existed.
func (r *UserRepository) Delete(ctx context.Context, identifier string) (bool, error) {
	var name string
	err := r.pool.QueryRow(ctx,
		"SELECT name FROM users WHERE user_id = $1 OR name_key = $2",
		identifier, store.NormalizeName(identifier),
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("resolve user: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE name = $1", name); err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings WHERE name = $1", name); err != nil {
		return false, fmt.Errorf("delete embeddings: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}

	r.removeDatasetDirs(name)
	return true, nil
}

func (r *UserRepository) ensureDatasetDirs(name string) {
	if r.datasetDir == "" {
		return
	}
	for _, sub := range []string{"raw", "cropped"} {
		dir := filepath.Join(r.datasetDir, name, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("postgres: failed to create dataset dir %s: %v", dir, err)
		}
	}
}

func (r *UserRepository) removeDatasetDirs(name string) {
	if r.datasetDir == "" {
		return
	}
	dir := filepath.Join(r.datasetDir, name)
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("postgres: failed to remove dataset dir %s: %v", dir, err)
	}
}

var _ store.UserRepository = (*UserRepository)(nil)
