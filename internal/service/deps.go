package service

import (
	"context"
	"io"
	"time"

	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"
)

// Cache хранит готовые ответы аналитики
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

type Notifier interface {
	TaskAssigned(ctx context.Context, t *task.Task, assigner *user.User, assignees []*user.User) error
	HelpRequested(ctx context.Context, t *task.Task, requester *user.User, heads []*user.User, reason string) error
	DeadlinePassed(ctx context.Context, t *task.Task, assignees []*user.User) error
}

// EvidenceStore сохраняет файл и возвращает публичный путь к нему
type EvidenceStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}
