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

type TeamStorage struct {
	pool *pgxpool.Pool
}

func (s *TeamStorage) Create(ctx context.Context, t *user.Team) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO teams (id, name, created_at) VALUES ($1, $2, $3)`, t.ID, t.Name, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить команду", err)
		return fmt.Errorf("добавление команды: %w", err)
	}
	return nil
}

func (s *TeamStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.Team, error) {
	t := &user.Team{}
	err := s.pool.QueryRow(ctx, `SELECT id, name, created_at FROM teams WHERE id = $1`, id).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить команду", err)
		return nil, fmt.Errorf("получение команды: %w", err)
	}
	return t, nil
}

func (s *TeamStorage) List(ctx context.Context) ([]*user.Team, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM teams ORDER BY name`)
	if err != nil {
		logger.Error("Repository: Не удалось получить команды", err)
		return nil, fmt.Errorf("получение команд: %w", err)
	}
	defer rows.Close()

	teams := []*user.Team{}
	for rows.Next() {
		t := &user.Team{}
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("сканирование команды: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return teams, nil
}

// Delete: участники остаются без команды, это делает ON DELETE SET NULL
func (s *TeamStorage) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить команду", err)
		return fmt.Errorf("удаление команды: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
