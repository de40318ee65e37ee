package service

import (
	"context"
	"time"

	"syncdeck/internal/models/task"

	"github.com/google/uuid"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	// Update сверяет Version; при расхождении возвращает repository.ErrVersionConflict
	Update(context.Context, *task.Task) error
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	// List при limit <= 0 возвращает все подходящие задачи
	List(ctx context.Context, filter task.Filter, page, limit int) ([]*task.Task, error)
	Delete(context.Context, uuid.UUID) error
	MarkViewed(ctx context.Context, taskID, userID uuid.UUID, at time.Time) error
	GetTasksDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error)
	MarkReminded(ctx context.Context, taskID uuid.UUID, at time.Time) error
}

// ActivityRepository - лента событий и связанные с задачей записи
type ActivityRepository interface {
	AddActivity(context.Context, *task.Activity) error
	ListActivities(ctx context.Context, taskID uuid.UUID) ([]*task.Activity, error)
	AddProgressUpdate(context.Context, *task.ProgressUpdate) error
	AddHelpRequest(context.Context, *task.HelpRequest) error
	// TasksWithHelpRequests возвращает задачи из ids, по которым просили помощь
	TasksWithHelpRequests(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}

type CommentRepository interface {
	Create(context.Context, *task.Comment) error
	GetByID(context.Context, uuid.UUID) (*task.Comment, error)
	Update(context.Context, *task.Comment) error
	Delete(context.Context, uuid.UUID) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error)
}
