package handlers

import (
	"context"
	"io"

	"syncdeck/internal/export"
	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"
	"syncdeck/internal/service"

	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, current *user.User, in service.CreateTaskInput) (*task.Task, error)
	List(ctx context.Context, current *user.User, page, limit int) ([]*task.Task, error)
	Get(ctx context.Context, current *user.User, id uuid.UUID) (*task.Task, error)
	Update(ctx context.Context, current *user.User, id uuid.UUID, in service.UpdateTaskInput) (*task.Task, error)
	Delete(ctx context.Context, current *user.User, id uuid.UUID) error
	UpdateProgress(ctx context.Context, current *user.User, id uuid.UUID, in service.ProgressInput) (*task.Task, error)
	Approve(ctx context.Context, current *user.User, id uuid.UUID) (*task.Task, error)
	RequestHelp(ctx context.Context, current *user.User, id uuid.UUID, reason string) (*task.HelpRequest, error)
	MarkViewed(ctx context.Context, current *user.User, id uuid.UUID) error
	Timeline(ctx context.Context, id uuid.UUID) ([]*task.Activity, error)
	UploadEvidence(ctx context.Context, current *user.User, id uuid.UUID, filename string, r io.Reader) (*service.EvidenceResult, error)

	AddComment(ctx context.Context, current *user.User, taskID uuid.UUID, content string) (*task.Comment, error)
	Comments(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error)
	EditComment(ctx context.Context, current *user.User, taskID, commentID uuid.UUID, content string) (*task.Comment, error)
	DeleteComment(ctx context.Context, current *user.User, taskID, commentID uuid.UUID) error
}

type UserService interface {
	List(ctx context.Context, page, limit int) ([]*user.User, error)
	Create(ctx context.Context, current *user.User, in service.CreateUserInput) (*user.User, error)
	Update(ctx context.Context, current *user.User, id uuid.UUID, in service.UpdateUserInput) (*user.User, error)
	Delete(ctx context.Context, current *user.User, id uuid.UUID) error

	RequestDeletion(ctx context.Context, current *user.User, targetID uuid.UUID, reason string) (*user.DeletionRequest, error)
	ListDeletionRequests(ctx context.Context, current *user.User, status user.DeletionStatus) ([]*user.DeletionRequest, error)
	ReviewDeletion(ctx context.Context, current *user.User, id uuid.UUID, approved bool) (*service.ReviewResult, error)
}

type TeamService interface {
	List(ctx context.Context) ([]*user.Team, error)
	Create(ctx context.Context, current *user.User, name string) (*user.Team, error)
	Delete(ctx context.Context, current *user.User, id uuid.UUID) error
}

type AnalyticsService interface {
	Overview(ctx context.Context, current *user.User) (*service.Overview, error)
	AchievementStats(ctx context.Context, userID uuid.UUID) (*user.AchievementStats, error)
	Achievements(ctx context.Context, current *user.User, userID uuid.UUID, period service.Period) ([]*task.Task, error)
	ExportAchievements(ctx context.Context, current *user.User, userID uuid.UUID, period service.Period, format string) (*export.Report, error)
}

type AuthService interface {
	Login(ctx context.Context, username, password, mfaCode string) (*service.Token, error)
	SetupMFA(ctx context.Context, current *user.User) (*service.MFASetup, error)
	EnableMFA(ctx context.Context, current *user.User, secret, code string) error
}
