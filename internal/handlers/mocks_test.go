package handlers_test

import (
	"context"
	"io"

	"syncdeck/internal/export"
	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"
	"syncdeck/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTaskService - мок сервиса задач
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTaskService) Create(ctx context.Context, current *user.User, in service.CreateTaskInput) (*task.Task, error) {
	args := m.Called(ctx, current, in)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, current *user.User, page, limit int) ([]*task.Task, error) {
	args := m.Called(ctx, current, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, current *user.User, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, current, id)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, current *user.User, id uuid.UUID, in service.UpdateTaskInput) (*task.Task, error) {
	args := m.Called(ctx, current, id, in)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, current *user.User, id uuid.UUID) error {
	return m.Called(ctx, current, id).Error(0)
}

func (m *MockTaskService) UpdateProgress(ctx context.Context, current *user.User, id uuid.UUID, in service.ProgressInput) (*task.Task, error) {
	args := m.Called(ctx, current, id, in)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) Approve(ctx context.Context, current *user.User, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, current, id)
	return taskOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) RequestHelp(ctx context.Context, current *user.User, id uuid.UUID, reason string) (*task.HelpRequest, error) {
	args := m.Called(ctx, current, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.HelpRequest), args.Error(1)
}

func (m *MockTaskService) MarkViewed(ctx context.Context, current *user.User, id uuid.UUID) error {
	return m.Called(ctx, current, id).Error(0)
}

func (m *MockTaskService) Timeline(ctx context.Context, id uuid.UUID) ([]*task.Activity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Activity), args.Error(1)
}

func (m *MockTaskService) UploadEvidence(ctx context.Context, current *user.User, id uuid.UUID, filename string, r io.Reader) (*service.EvidenceResult, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, current, id, filename, string(body))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EvidenceResult), args.Error(1)
}

func (m *MockTaskService) AddComment(ctx context.Context, current *user.User, taskID uuid.UUID, content string) (*task.Comment, error) {
	args := m.Called(ctx, current, taskID, content)
	return commentOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) Comments(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Comment), args.Error(1)
}

func (m *MockTaskService) EditComment(ctx context.Context, current *user.User, taskID, commentID uuid.UUID, content string) (*task.Comment, error) {
	args := m.Called(ctx, current, taskID, commentID, content)
	return commentOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTaskService) DeleteComment(ctx context.Context, current *user.User, taskID, commentID uuid.UUID) error {
	return m.Called(ctx, current, taskID, commentID).Error(0)
}

func taskOrNil(v any) *task.Task {
	if v == nil {
		return nil
	}
	return v.(*task.Task)
}

func commentOrNil(v any) *task.Comment {
	if v == nil {
		return nil
	}
	return v.(*task.Comment)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) List(ctx context.Context, page, limit int) ([]*user.User, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockUserService) Create(ctx context.Context, current *user.User, in service.CreateUserInput) (*user.User, error) {
	args := m.Called(ctx, current, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, current *user.User, id uuid.UUID, in service.UpdateUserInput) (*user.User, error) {
	args := m.Called(ctx, current, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, current *user.User, id uuid.UUID) error {
	return m.Called(ctx, current, id).Error(0)
}

func (m *MockUserService) RequestDeletion(ctx context.Context, current *user.User, targetID uuid.UUID, reason string) (*user.DeletionRequest, error) {
	args := m.Called(ctx, current, targetID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.DeletionRequest), args.Error(1)
}

func (m *MockUserService) ListDeletionRequests(ctx context.Context, current *user.User, status user.DeletionStatus) ([]*user.DeletionRequest, error) {
	args := m.Called(ctx, current, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.DeletionRequest), args.Error(1)
}

func (m *MockUserService) ReviewDeletion(ctx context.Context, current *user.User, id uuid.UUID, approved bool) (*service.ReviewResult, error) {
	args := m.Called(ctx, current, id, approved)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReviewResult), args.Error(1)
}

type MockTeamService struct {
	mock.Mock
}

func (m *MockTeamService) List(ctx context.Context) ([]*user.Team, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.Team), args.Error(1)
}

func (m *MockTeamService) Create(ctx context.Context, current *user.User, name string) (*user.Team, error) {
	args := m.Called(ctx, current, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Team), args.Error(1)
}

func (m *MockTeamService) Delete(ctx context.Context, current *user.User, id uuid.UUID) error {
	return m.Called(ctx, current, id).Error(0)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Overview(ctx context.Context, current *user.User) (*service.Overview, error) {
	args := m.Called(ctx, current)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Overview), args.Error(1)
}

func (m *MockAnalyticsService) AchievementStats(ctx context.Context, userID uuid.UUID) (*user.AchievementStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.AchievementStats), args.Error(1)
}

func (m *MockAnalyticsService) Achievements(ctx context.Context, current *user.User, userID uuid.UUID, period service.Period) ([]*task.Task, error) {
	args := m.Called(ctx, current, userID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockAnalyticsService) ExportAchievements(ctx context.Context, current *user.User, userID uuid.UUID, period service.Period, format string) (*export.Report, error) {
	args := m.Called(ctx, current, userID, period, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.Report), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, username, password, mfaCode string) (*service.Token, error) {
	args := m.Called(ctx, username, password, mfaCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Token), args.Error(1)
}

func (m *MockAuthService) SetupMFA(ctx context.Context, current *user.User) (*service.MFASetup, error) {
	args := m.Called(ctx, current)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MFASetup), args.Error(1)
}

func (m *MockAuthService) EnableMFA(ctx context.Context, current *user.User, secret, code string) error {
	return m.Called(ctx, current, secret, code).Error(0)
}

// staticAuth пускает единственный токен и отдаёт заранее заданного пользователя
type staticAuth struct {
	token string
	user  *user.User
}

func (a staticAuth) Authenticate(_ context.Context, raw string) (*user.User, error) {
	if raw != a.token {
		return nil, service.NewUnauthorized(service.MsgInvalidToken)
	}
	return a.user, nil
}
