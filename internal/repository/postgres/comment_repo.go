package postgres

import (
	"context"
	"errors"
	"fmt"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/task"
	repo "syncdeck/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CommentStorage struct {
	pool *pgxpool.Pool
}

func (s *CommentStorage) Create(ctx context.Context, c *task.Comment) error {
	query := `INSERT INTO comments (id, task_id, author_id, content, created_at)
				VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.pool.Exec(ctx, query, c.ID, c.TaskID, c.AuthorID, c.Content, c.CreatedAt); err != nil {
		logger.Error("Repository: Не удалось добавить комментарий", err)
		return fmt.Errorf("добавление комментария: %w", err)
	}
	return nil
}

func (s *CommentStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Comment, error) {
	query := `SELECT id, task_id, author_id, content, created_at, updated_at
				FROM comments WHERE id = $1`

	c := &task.Comment{}
	err := s.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить комментарий", err)
		return nil, fmt.Errorf("получение комментария: %w", err)
	}
	return c, nil
}

func (s *CommentStorage) Update(ctx context.Context, c *task.Comment) error {
	tag, err := s.pool.Exec(ctx, `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`,
		c.ID, c.Content, c.UpdatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось обновить комментарий", err)
		return fmt.Errorf("обновление комментария: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *CommentStorage) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить комментарий", err)
		return fmt.Errorf("удаление комментария: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *CommentStorage) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error) {
	query := `SELECT id, task_id, author_id, content, created_at, updated_at
				FROM comments
				WHERE task_id = $1
				ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить комментарии", err)
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	defer rows.Close()

	comments := []*task.Comment{}
	for rows.Next() {
		c := &task.Comment{}
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("сканирование комментария: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return comments, nil
}
