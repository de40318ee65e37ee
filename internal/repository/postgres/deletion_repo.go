package postgres

import (
	"context"
	"errors"
	"fmt"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/user"
	repo "syncdeck/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const deletionColumns = `id, user_id, requested_by_id, reason, status, created_at, reviewed_at, reviewed_by_id`

type DeletionRequestStorage struct {
	pool *pgxpool.Pool
}

func (s *DeletionRequestStorage) Create(ctx context.Context, r *user.DeletionRequest) error {
	query := `INSERT INTO deletion_requests (` + deletionColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, query, r.ID, r.UserID, r.RequestedByID, r.Reason, r.Status, r.CreatedAt, r.ReviewedAt, r.ReviewedByID)
	if err != nil {
		logger.Error("Repository: Не удалось создать заявку на удаление", err)
		return fmt.Errorf("создание заявки: %w", err)
	}
	return nil
}

func (s *DeletionRequestStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.DeletionRequest, error) {
	return s.getOne(ctx, `SELECT `+deletionColumns+` FROM deletion_requests WHERE id = $1`, id)
}

func (s *DeletionRequestStorage) FindPending(ctx context.Context, userID uuid.UUID) (*user.DeletionRequest, error) {
	return s.getOne(ctx, `SELECT `+deletionColumns+` FROM deletion_requests
				WHERE user_id = $1 AND status = 'pending'
				LIMIT 1`, userID)
}

func (s *DeletionRequestStorage) getOne(ctx context.Context, query string, arg any) (*user.DeletionRequest, error) {
	r, err := scanDeletionRequest(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить заявку на удаление", err)
		return nil, fmt.Errorf("получение заявки: %w", err)
	}
	return r, nil
}

func (s *DeletionRequestStorage) Update(ctx context.Context, r *user.DeletionRequest) error {
	query := `UPDATE deletion_requests
			SET status = $2,
				reviewed_at = $3,
				reviewed_by_id = $4
			WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, r.ID, r.Status, r.ReviewedAt, r.ReviewedByID)
	if err != nil {
		logger.Error("Repository: Не удалось обновить заявку на удаление", err)
		return fmt.Errorf("обновление заявки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *DeletionRequestStorage) List(ctx context.Context, status user.DeletionStatus) ([]*user.DeletionRequest, error) {
	query := `SELECT ` + deletionColumns + ` FROM deletion_requests`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить заявки на удаление", err)
		return nil, fmt.Errorf("получение заявок: %w", err)
	}
	defer rows.Close()

	list := []*user.DeletionRequest{}
	for rows.Next() {
		r, err := scanDeletionRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование заявки: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return list, nil
}

func (s *DeletionRequestStorage) DeleteApproved(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM deletion_requests WHERE user_id = $1 AND status = 'approved'`, userID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить заявки", err)
		return fmt.Errorf("удаление заявок: %w", err)
	}
	return nil
}

func scanDeletionRequest(row pgx.Row) (*user.DeletionRequest, error) {
	r := &user.DeletionRequest{}
	err := row.Scan(&r.ID, &r.UserID, &r.RequestedByID, &r.Reason, &r.Status, &r.CreatedAt, &r.ReviewedAt, &r.ReviewedByID)
	if err != nil {
		return nil, err
	}
	return r, nil
}
