package service_test

import (
	"context"
	"time"

	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"
	"syncdeck/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTaskRepository - мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, filter task.Filter, page, limit int) ([]*task.Task, error) {
	args := m.Called(ctx, filter, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) MarkViewed(ctx context.Context, taskID, userID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, taskID, userID, at)
	return args.Error(0)
}

func (m *MockTaskRepository) GetTasksDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error) {
	args := m.Called(ctx, deadline, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) MarkReminded(ctx context.Context, taskID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, taskID, at)
	return args.Error(0)
}

// MockActivityRepository - мок ленты событий
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) AddActivity(ctx context.Context, a *task.Activity) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockActivityRepository) ListActivities(ctx context.Context, taskID uuid.UUID) ([]*task.Activity, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Activity), args.Error(1)
}

func (m *MockActivityRepository) AddProgressUpdate(ctx context.Context, u *task.ProgressUpdate) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockActivityRepository) AddHelpRequest(ctx context.Context, r *task.HelpRequest) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockActivityRepository) TasksWithHelpRequests(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]bool), args.Error(1)
}

// MockUserRepository - мок пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, page, limit int) ([]*user.User, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockUserRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*user.User, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockNotifier - мок уведомлений
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) TaskAssigned(ctx context.Context, t *task.Task, assigner *user.User, assignees []*user.User) error {
	args := m.Called(ctx, t, assigner, assignees)
	return args.Error(0)
}

func (m *MockNotifier) HelpRequested(ctx context.Context, t *task.Task, requester *user.User, heads []*user.User, reason string) error {
	args := m.Called(ctx, t, requester, heads, reason)
	return args.Error(0)
}

func (m *MockNotifier) DeadlinePassed(ctx context.Context, t *task.Task, assignees []*user.User) error {
	args := m.Called(ctx, t, assignees)
	return args.Error(0)
}

// MockCache - мок кеша аналитики
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	args := m.Called(ctx, key, dst)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

var (
	_ service.TaskRepository     = (*MockTaskRepository)(nil)
	_ service.ActivityRepository = (*MockActivityRepository)(nil)
	_ service.UserRepository     = (*MockUserRepository)(nil)
	_ service.Notifier           = (*MockNotifier)(nil)
	_ service.Cache              = (*MockCache)(nil)
)
