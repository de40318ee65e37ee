package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/user"
	repo "syncdeck/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const userColumns = `id, username, email, hashed_password, role, team_id, mfa_secret, created_at`

type UserStorage struct {
	pool *pgxpool.Pool
}

func (s *UserStorage) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (` + userColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, query, u.ID, u.Username, u.Email, u.HashedPassword, u.Role, u.TeamID, u.MFASecret, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить пользователя", err)
		return fmt.Errorf("добавление пользователя: %w", err)
	}
	return nil
}

func (s *UserStorage) Update(ctx context.Context, u *user.User) error {
	query := `UPDATE users
			SET username = $2,
				email = $3,
				hashed_password = $4,
				role = $5,
				team_id = $6,
				mfa_secret = $7
			WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, u.ID, u.Username, u.Email, u.HashedPassword, u.Role, u.TeamID, u.MFASecret)
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось обновить пользователя", err)
		return fmt.Errorf("обновление пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *UserStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *UserStorage) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *UserStorage) getOne(ctx context.Context, query string, arg any) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (s *UserStorage) List(ctx context.Context, page, limit int) ([]*user.User, error) {
	start := time.Now()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, username`
	args := []any{}
	if limit > 0 {
		if page < 1 {
			page = 1
		}
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, (page-1)*limit)
	}

	users, err := s.query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err, zap.Duration("ms", time.Since(start)))
		return nil, err
	}

	logSlow(start, time.Millisecond*50+time.Millisecond*10*time.Duration(limit), "list_users")
	return users, nil
}

func (s *UserStorage) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*user.User, error) {
	return s.query(ctx, `SELECT `+userColumns+` FROM users WHERE team_id = $1 ORDER BY username`, teamID)
}

func (s *UserStorage) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить пользователя", err)
		return fmt.Errorf("удаление пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *UserStorage) query(ctx context.Context, query string, args ...any) ([]*user.User, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование пользователя: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Role, &u.TeamID, &u.MFASecret, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
