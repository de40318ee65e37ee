package postgres

import (
	"context"
	"fmt"
	"time"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/task"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ActivityStorage struct {
	pool *pgxpool.Pool
}

func (s *ActivityStorage) AddActivity(ctx context.Context, a *task.Activity) error {
	query := `INSERT INTO task_activities (id, task_id, user_id, activity_type, description, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query, a.ID, a.TaskID, a.UserID, a.Type, a.Description, a.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось записать событие", err)
		return fmt.Errorf("запись события: %w", err)
	}
	return nil
}

func (s *ActivityStorage) ListActivities(ctx context.Context, taskID uuid.UUID) ([]*task.Activity, error) {
	start := time.Now()

	query := `SELECT id, task_id, user_id, activity_type, description, created_at
				FROM task_activities
				WHERE task_id = $1
				ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить ленту", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение ленты: %w", err)
	}
	defer rows.Close()

	activities := []*task.Activity{}
	for rows.Next() {
		a := &task.Activity{}
		if err := rows.Scan(&a.ID, &a.TaskID, &a.UserID, &a.Type, &a.Description, &a.CreatedAt); err != nil {
			logger.Warn("Repository: Ошибка сканирования события", zap.Error(err))
			continue
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	logSlow(start, time.Millisecond*100, "list_activities")
	return activities, nil
}

func (s *ActivityStorage) AddProgressUpdate(ctx context.Context, u *task.ProgressUpdate) error {
	query := `INSERT INTO progress_updates (id, task_id, user_id, summary_text, progress_percentage, status, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query, u.ID, u.TaskID, u.UserID, u.SummaryText, u.Progress, u.Status, u.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось записать обновление прогресса", err)
		return fmt.Errorf("запись обновления прогресса: %w", err)
	}
	return nil
}

func (s *ActivityStorage) AddHelpRequest(ctx context.Context, r *task.HelpRequest) error {
	query := `INSERT INTO help_requests (id, task_id, requester_id, reason, status, created_at, resolved_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query, r.ID, r.TaskID, r.RequesterID, r.Reason, r.Status, r.CreatedAt, r.ResolvedAt)
	if err != nil {
		logger.Error("Repository: Не удалось записать запрос помощи", err)
		return fmt.Errorf("запись запроса помощи: %w", err)
	}
	return nil
}

func (s *ActivityStorage) TasksWithHelpRequests(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	res := make(map[uuid.UUID]bool)
	if len(ids) == 0 {
		return res, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT DISTINCT task_id FROM help_requests WHERE task_id = ANY($1)`, ids)
	if err != nil {
		logger.Error("Repository: Не удалось получить запросы помощи", err)
		return nil, fmt.Errorf("получение запросов помощи: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("сканирование запроса помощи: %w", err)
		}
		res[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return res, nil
}
