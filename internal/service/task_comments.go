package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"
	rep "syncdeck/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *TaskService) AddComment(ctx context.Context, current *user.User, taskID uuid.UUID, content string) (*task.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewValidationError("content", "must not be empty")
	}
	if _, err := s.getTask(ctx, taskID); err != nil {
		return nil, err
	}

	c := &task.Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  current.ID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("создание комментария: %w", err)
	}
	s.addActivity(ctx, task.NewActivity(taskID, current.ID, task.ActivityCommentAdded, "Added a comment"))

	logger.Info("Service: Комментарий добавлен",
		zap.String("task_id", taskID.String()),
		zap.String("comment_id", c.ID.String()))
	return c, nil
}

func (s *TaskService) Comments(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error) {
	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	return comments, nil
}

// EditComment - править комментарий может только его автор
func (s *TaskService) EditComment(ctx context.Context, current *user.User, taskID, commentID uuid.UUID, content string) (*task.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewValidationError("content", "must not be empty")
	}

	c, err := s.getComment(ctx, taskID, commentID)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != current.ID {
		return nil, NewForbidden("You can only edit your own comments")
	}

	now := time.Now().UTC()
	c.Content = content
	c.UpdatedAt = &now
	if err := s.comments.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("обновление комментария: %w", err)
	}
	s.addActivity(ctx, task.NewActivity(taskID, current.ID, task.ActivityCommentAdded, "Edited a comment"))
	return c, nil
}

func (s *TaskService) DeleteComment(ctx context.Context, current *user.User, taskID, commentID uuid.UUID) error {
	c, err := s.getComment(ctx, taskID, commentID)
	if err != nil {
		return err
	}
	if c.AuthorID != current.ID {
		return NewForbidden("You can only delete your own comments")
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(ResourceComment, commentID.String())
		}
		return fmt.Errorf("удаление комментария: %w", err)
	}
	s.addActivity(ctx, task.NewActivity(taskID, current.ID, task.ActivityCommentAdded, "Deleted a comment"))
	return nil
}

func (s *TaskService) getComment(ctx context.Context, taskID, commentID uuid.UUID) (*task.Comment, error) {
	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(ResourceComment, commentID.String())
		}
		return nil, fmt.Errorf("получение комментария: %w", err)
	}
	if c.TaskID != taskID {
		return nil, NewNotFound(ResourceComment, commentID.String())
	}
	return c, nil
}
