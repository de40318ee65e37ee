package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/user"
	rep "syncdeck/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewResult struct {
	Message string                `json:"message"`
	Request *user.DeletionRequest `json:"request"`
}

// RequestDeletion - руководитель команды просит удалить участника своей команды
func (s *UserService) RequestDeletion(ctx context.Context, current *user.User, targetID uuid.UUID, reason string) (*user.DeletionRequest, error) {
	if !current.Role.IsUnitLevelHead() {
		return nil, NewForbidden("Only Unit Heads can request user deletion")
	}

	target, err := s.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role != user.RoleMember {
		return nil, NewForbidden("Can only request deletion of Members")
	}
	if !target.InTeam(current.TeamID) {
		return nil, NewForbidden("Can only request deletion of Members in your own team")
	}

	_, err = s.requests.FindPending(ctx, targetID)
	if err == nil {
		return nil, NewBadRequest("There is already a pending deletion request for this user")
	}
	if !errors.Is(err, rep.ErrNotFound) {
		return nil, fmt.Errorf("поиск заявки: %w", err)
	}

	req := &user.DeletionRequest{
		ID:            uuid.New(),
		UserID:        targetID,
		RequestedByID: current.ID,
		Reason:        reason,
		Status:        user.DeletionPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("создание заявки: %w", err)
	}

	logger.Info("Service: Заявка на удаление создана",
		zap.String("request_id", req.ID.String()),
		zap.String("user_id", targetID.String()))
	return req, nil
}

// ListDeletionRequests - пустой статус означает все заявки
func (s *UserService) ListDeletionRequests(ctx context.Context, current *user.User, status user.DeletionStatus) ([]*user.DeletionRequest, error) {
	if current.Role != user.RoleGroupHead {
		return nil, NewForbidden("Only Group Heads can view deletion requests")
	}
	if status != "" && !status.Valid() {
		return nil, NewValidationError("status", "unknown status")
	}

	list, err := s.requests.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("получение заявок: %w", err)
	}
	return list, nil
}

func (s *UserService) ReviewDeletion(ctx context.Context, current *user.User, id uuid.UUID, approved bool) (*ReviewResult, error) {
	if current.Role != user.RoleGroupHead {
		return nil, NewForbidden("Only Group Heads can review deletion requests")
	}

	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(ResourceDeletionRequest, id.String())
		}
		return nil, fmt.Errorf("получение заявки: %w", err)
	}
	if req.Status != user.DeletionPending {
		return nil, NewBadRequest("This request has already been reviewed")
	}

	now := time.Now().UTC()
	req.ReviewedAt = &now
	req.ReviewedByID = &current.ID
	req.Status = user.DeletionRejected
	if approved {
		req.Status = user.DeletionApproved
	}

	if err := s.requests.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("обновление заявки: %w", err)
	}

	// пользователь удаляется после заявки: строка заявки уходит вместе с ним каскадом
	if approved {
		err := s.users.Delete(ctx, req.UserID)
		if err != nil && !errors.Is(err, rep.ErrNotFound) {
			s.reopenDeletion(ctx, req)
			return nil, fmt.Errorf("удаление пользователя: %w", err)
		}
	}

	verdict := "rejected"
	if approved {
		verdict = "approved"
	}
	logger.Info("Service: Заявка на удаление рассмотрена",
		zap.String("request_id", id.String()),
		zap.String("status", string(req.Status)))

	return &ReviewResult{Message: "Deletion request " + verdict, Request: req}, nil
}

// reopenDeletion возвращает заявку в pending, если пользователя удалить не удалось
func (s *UserService) reopenDeletion(ctx context.Context, req *user.DeletionRequest) {
	req.Status = user.DeletionPending
	req.ReviewedAt = nil
	req.ReviewedByID = nil
	if err := s.requests.Update(ctx, req); err != nil {
		logger.Error("Service: Не удалось вернуть заявку в pending", err,
			zap.String("request_id", req.ID.String()))
	}
}
