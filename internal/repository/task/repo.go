package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/image-compressor/internal/model"
)

var ErrTaskNotFound = errors.New("task not found")

// Repository stores compression task state in PostgreSQL.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// SaveTask inserts a new task record.
func (r *Repository) SaveTask(ctx context.Context, t model.Task) error {
	query := `
		INSERT INTO compress_tasks (id, filename, path, content_type, quality, max_width, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`

	_, err := r.db.ExecContext(
		ctx, query, t.ID, t.Filename, t.Path, t.ContentType, t.Quality, t.MaxWidth, t.Status, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save: failed to save task: %w", err)
	}

	return nil
}

// GetTask retrieves a task record by ID.
func (r *Repository) GetTask(ctx context.Context, id uuid.UUID) (model.Task, error) {
	query := `
		SELECT filename, path, content_type, quality, max_width, status, result_path, error, created_at, updated_at
		FROM compress_tasks
		WHERE id = $1
	`

	t := model.Task{ID: id}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.Filename, &t.Path, &t.ContentType, &t.Quality, &t.MaxWidth,
		&t.Status, &t.ResultPath, &t.Error, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrTaskNotFound
		}

		return model.Task{}, fmt.Errorf("get: failed to get task: %w", err)
	}

	return t, nil
}

// UpdateStatus sets the status, result path and error of an existing task.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status, resultPath, reason string) error {
	query := `
		UPDATE compress_tasks
		SET status = $1, result_path = $2, error = $3, updated_at = now()
		WHERE id = $4
	`

	res, err := r.db.ExecContext(ctx, query, status, resultPath, reason, id)
	if err != nil {
		return fmt.Errorf("update: failed to update task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update: failed to get number of rows affected: %w", err)
	}

	if n == 0 {
		return ErrTaskNotFound
	}

	return nil
}
