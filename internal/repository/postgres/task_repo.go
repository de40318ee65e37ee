package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/task"
	repo "syncdeck/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const taskColumns = `t.uuid,
				t.title,
				t.description,
				t.status,
				t.criticality,
				t.progress_percentage,
				t.assigner_id,
				t.deadline,
				t.created_at,
				t.updated_at,
				t.completed_at,
				t.evidence_url,
				t.is_internal,
				t.reminded_at,
				t.version`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type TaskStorage struct {
	pool   *pgxpool.Pool
	health func(context.Context) error
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return s.health(ctx)
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now().UTC()
	}
	if taskToCreate.Version == 0 {
		taskToCreate.Version = 1
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO tasks
				(uuid, title, description, status, criticality, progress_percentage, assigner_id,
				 deadline, created_at, completed_at, evidence_url, is_internal, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = tx.Exec(ctx, query,
		taskToCreate.UUID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Status,
		taskToCreate.Criticality,
		taskToCreate.Progress,
		taskToCreate.AssignerID,
		taskToCreate.Deadline,
		taskToCreate.CreatedAt,
		taskToCreate.CompletedAt,
		taskToCreate.EvidenceURL,
		taskToCreate.IsInternal,
		taskToCreate.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if err := syncAssignees(ctx, tx, taskToCreate); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	logSlow(start, time.Millisecond*50, "create_task")
	return nil
}

// Update с оптимистичной блокировкой по version
func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				criticality = $4,
				progress_percentage = $5,
				deadline = $6,
				completed_at = $7,
				evidence_url = $8,
				is_internal = $9,
				reminded_at = $10,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $11 AND version = $12
			RETURNING updated_at, version`

	err = tx.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Status,
		taskToUpdate.Criticality,
		taskToUpdate.Progress,
		taskToUpdate.Deadline,
		taskToUpdate.CompletedAt,
		taskToUpdate.EvidenceURL,
		taskToUpdate.IsInternal,
		taskToUpdate.RemindedAt,
		taskToUpdate.UUID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.UpdatedAt, &taskToUpdate.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE uuid = $1)`, taskToUpdate.UUID).Scan(&exists); err != nil {
				return fmt.Errorf("проверка задачи: %w", err)
			}
			if !exists {
				return repo.ErrNotFound
			}
			logger.Warn("Конфликт версий при обновлении задачи",
				zap.String("task_id", taskToUpdate.UUID.String()),
				zap.Int("expected_version", taskToUpdate.Version))
			return repo.ErrVersionConflict
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if err := syncAssignees(ctx, tx, taskToUpdate); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	logSlow(start, time.Millisecond*100, "update_task")
	return nil
}

// syncAssignees приводит назначения к списку задачи, viewed_at оставшихся не трогается
func syncAssignees(ctx context.Context, tx pgx.Tx, t *task.Task) error {
	ids := t.AssigneeIDs()

	_, err := tx.Exec(ctx, `DELETE FROM task_assignees WHERE task_id = $1 AND NOT (user_id = ANY($2))`, t.UUID, ids)
	if err != nil {
		logger.Error("Repository: Не удалось обновить исполнителей", err)
		return fmt.Errorf("удаление исполнителей: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range t.Assignees {
		assignedAt := a.AssignedAt
		if assignedAt.IsZero() {
			assignedAt = time.Now().UTC()
		}
		batch.Queue(`INSERT INTO task_assignees (task_id, user_id, assigned_at, viewed_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (task_id, user_id) DO NOTHING`,
			t.UUID, a.UserID, assignedAt, a.ViewedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		logger.Error("Repository: Не удалось добавить исполнителей", err)
		return fmt.Errorf("добавление исполнителей: %w", err)
	}
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.uuid = $1`

	taskToGet, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if err := loadAssignees(ctx, s.pool, []*task.Task{taskToGet}); err != nil {
		return nil, err
	}

	logSlow(start, time.Millisecond*100, "get_task")
	return taskToGet, nil
}

// List переводит Filter в SQL; условия совпадают с Filter.Matches
func (s *TaskStorage) List(ctx context.Context, filter task.Filter, page, limit int) ([]*task.Task, error) {
	start := time.Now()

	where, args := filterSQL(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE ` + where

	if filter.OrderByCompleted {
		query += ` ORDER BY t.completed_at DESC NULLS LAST, t.created_at DESC`
	} else {
		query += ` ORDER BY t.created_at DESC`
	}
	if limit > 0 {
		if page < 1 {
			page = 1
		}
		args = append(args, limit, (page-1)*limit)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	tasks, err := queryTasks(ctx, s.pool, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, err
	}
	if err := loadAssignees(ctx, s.pool, tasks); err != nil {
		return nil, err
	}

	logSlow(start, time.Millisecond*50+time.Millisecond*10*time.Duration(len(tasks)), "list_tasks")
	return tasks, nil
}

func filterSQL(f task.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	author := ""
	if f.Assigner != nil {
		author = "t.assigner_id = " + arg(*f.Assigner)
	}

	if f.ExcludeInternal {
		if author != "" {
			conds = append(conds, "(NOT t.is_internal OR "+author+")")
		} else {
			conds = append(conds, "NOT t.is_internal")
		}
	}

	if !f.All {
		var visible []string
		if author != "" {
			visible = append(visible, author)
		}
		if len(f.AnyAssignee) > 0 {
			visible = append(visible, "EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = t.uuid AND ta.user_id = ANY("+arg(f.AnyAssignee)+"))")
		}
		if len(visible) == 0 {
			visible = append(visible, "FALSE")
		}
		conds = append(conds, "("+strings.Join(visible, " OR ")+")")
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			statuses = append(statuses, string(st))
		}
		conds = append(conds, "t.status = ANY("+arg(statuses)+")")
	}
	if f.CompletedAfter != nil {
		conds = append(conds, "t.completed_at >= "+arg(*f.CompletedAfter))
	}
	if f.CompletedBefore != nil {
		conds = append(conds, "t.completed_at <= "+arg(*f.CompletedBefore))
	}

	if len(conds) == 0 {
		return "TRUE", args
	}
	return strings.Join(conds, " AND "), args
}

func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	logSlow(start, time.Millisecond*100, "delete_task")
	return nil
}

func (s *TaskStorage) MarkViewed(ctx context.Context, taskID, userID uuid.UUID, at time.Time) error {
	query := `UPDATE task_assignees
				SET viewed_at = COALESCE(viewed_at, $3)
				WHERE task_id = $1 AND user_id = $2`

	tag, err := s.pool.Exec(ctx, query, taskID, userID, at)
	if err != nil {
		logger.Error("Repository: Не удалось отметить просмотр", err)
		return fmt.Errorf("отметка просмотра: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *TaskStorage) GetTasksDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks t
				WHERE t.status <> 'completed'
				AND t.deadline IS NOT NULL
				AND t.deadline < $1
				AND t.reminded_at IS NULL
				ORDER BY t.deadline
				LIMIT NULLIF($2::int, 0)`

	tasks, err := queryTasks(ctx, s.pool, query, deadline, max(limit, 0))
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, err
	}
	if err := loadAssignees(ctx, s.pool, tasks); err != nil {
		return nil, err
	}

	logSlow(start, time.Millisecond*50+time.Millisecond*10*time.Duration(limit), "tasks_due_before")
	return tasks, nil
}

func (s *TaskStorage) MarkReminded(ctx context.Context, taskID uuid.UUID, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tasks SET reminded_at = $2 WHERE uuid = $1`, taskID, at)
	if err != nil {
		logger.Error("Repository: Не удалось отметить напоминание", err)
		return fmt.Errorf("отметка напоминания: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func queryTasks(ctx context.Context, q querier, query string, args ...any) ([]*task.Task, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	var assigner *uuid.UUID

	err := row.Scan(
		&t.UUID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Criticality,
		&t.Progress,
		&assigner,
		&t.Deadline,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
		&t.EvidenceURL,
		&t.IsInternal,
		&t.RemindedAt,
		&t.Version,
	)
	if err != nil {
		return nil, err
	}
	if assigner != nil {
		t.AssignerID = *assigner
	}
	return t, nil
}

// loadAssignees подтягивает назначения одним запросом на всю выборку
func loadAssignees(ctx context.Context, q querier, tasks []*task.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*task.Task, len(tasks))
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		t.Assignees = []task.Assignment{}
		byID[t.UUID] = t
		ids = append(ids, t.UUID)
	}

	rows, err := q.Query(ctx, `SELECT task_id, user_id, assigned_at, viewed_at
				FROM task_assignees
				WHERE task_id = ANY($1)
				ORDER BY assigned_at, user_id`, ids)
	if err != nil {
		logger.Error("Repository: Не удалось получить исполнителей", err)
		return fmt.Errorf("получение исполнителей: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			taskID uuid.UUID
			a      task.Assignment
		)
		if err := rows.Scan(&taskID, &a.UserID, &a.AssignedAt, &a.ViewedAt); err != nil {
			return fmt.Errorf("сканирование исполнителя: %w", err)
		}
		if t, ok := byID[taskID]; ok {
			t.Assignees = append(t.Assignees, a)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("итерация по строкам: %w", err)
	}
	return nil
}
