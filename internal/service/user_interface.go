package service

import (
	"context"

	"syncdeck/internal/models/user"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(context.Context, *user.User) error
	Update(context.Context, *user.User) error
	GetByID(context.Context, uuid.UUID) (*user.User, error)
	GetByUsername(context.Context, string) (*user.User, error)
	List(ctx context.Context, page, limit int) ([]*user.User, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*user.User, error)
	Delete(context.Context, uuid.UUID) error
}

type TeamRepository interface {
	Create(context.Context, *user.Team) error
	GetByID(context.Context, uuid.UUID) (*user.Team, error)
	List(context.Context) ([]*user.Team, error)
	Delete(context.Context, uuid.UUID) error
}

type DeletionRequestRepository interface {
	Create(context.Context, *user.DeletionRequest) error
	GetByID(context.Context, uuid.UUID) (*user.DeletionRequest, error)
	Update(context.Context, *user.DeletionRequest) error
	// List без статуса возвращает все заявки, новые первыми
	List(ctx context.Context, status user.DeletionStatus) ([]*user.DeletionRequest, error)
	FindPending(ctx context.Context, userID uuid.UUID) (*user.DeletionRequest, error)
	DeleteApproved(ctx context.Context, userID uuid.UUID) error
}
