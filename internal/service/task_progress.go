package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"
	rep "syncdeck/internal/repository"
	"syncdeck/internal/resolver"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProgressInput struct {
	Progress int
	// Status nil - статус вычисляется из прогресса
	Status  *task.Status
	Summary string
}

type EvidenceResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// UpdateProgress - отчёт исполнителя о прогрессе. Без прав на метаданные
// 100% уводит задачу на подтверждение, а не в completed.
func (s *TaskService) UpdateProgress(ctx context.Context, current *user.User, id uuid.UUID, in ProgressInput) (*task.Task, error) {
	if in.Progress < 0 || in.Progress > 100 {
		return nil, NewValidationError("progress_percentage", "Progress must be between 0 and 100")
	}
	if in.Progress%5 != 0 {
		return nil, NewValidationError("progress_percentage", "Progress must be a multiple of 5")
	}

	t, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	perms := resolver.PermissionsFor(resolver.ActorOf(current), t)
	status := resolver.DeriveStatus(in.Progress, perms.CanEditMetadata, t.Status)
	if in.Status != nil {
		status = *in.Status
	}
	// задача уже ждёт group head, повторные 100% не возвращают её на первый уровень
	if t.Status == task.StatusPendingGroupHeadApproval && status == task.StatusPendingApproval {
		status = task.StatusPendingGroupHeadApproval
	}
	if err := checkForward(t.Status, status); err != nil {
		return nil, err
	}
	if err := checkTransition(in.Progress, status, perms.CanEditMetadata); err != nil {
		return nil, err
	}

	applyProgress(t, in.Progress, status)
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	update := &task.ProgressUpdate{
		ID:          uuid.New(),
		TaskID:      id,
		UserID:      current.ID,
		SummaryText: in.Summary,
		Progress:    in.Progress,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.activities.AddProgressUpdate(ctx, update); err != nil {
		logger.Error("Service: Не удалось сохранить отчёт о прогрессе", err, zap.String("task_id", id.String()))
	}

	summary := in.Summary
	if summary == "" {
		summary = "None"
	}
	s.addActivity(ctx, task.NewActivity(id, current.ID, task.ActivityProgressUpdate,
		fmt.Sprintf("Updated progress to %d%% and status to %s. Summary: %s", in.Progress, HumanizeStatus(status), summary)))
	s.invalidate(ctx)

	logger.Info("Service: Прогресс обновлён",
		zap.String("task_id", id.String()),
		zap.Int("progress", in.Progress),
		zap.String("status", string(status)))
	return t, nil
}

// Approve - многоуровневое подтверждение выполнения
func (s *TaskService) Approve(ctx context.Context, current *user.User, id uuid.UUID) (*task.Task, error) {
	t, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	assignerRole := user.RoleMember
	assigner, err := s.users.GetByID(ctx, t.AssignerID)
	switch {
	case err == nil:
		assignerRole = assigner.Role
	case errors.Is(err, rep.ErrNotFound):
		logger.Warn("Service: Автор задачи удалён", zap.String("task_id", id.String()))
	default:
		return nil, fmt.Errorf("получение автора задачи: %w", err)
	}

	next, err := resolver.ResolveApproval(resolver.ActorOf(current), t, assignerRole)
	if err != nil {
		switch {
		case errors.Is(err, resolver.ErrNotPending):
			return nil, NewBadRequest("Task is not pending approval. Current status: " + string(t.Status))
		case t.Status == task.StatusPendingGroupHeadApproval && current.Role.IsHead():
			return nil, NewForbidden("This task requires Group Head approval")
		default:
			return nil, NewForbidden("Only the assigner or unit heads can approve tasks")
		}
	}

	var description string
	if next == task.StatusCompleted {
		applyProgress(t, 100, next)
		description = "Task approved and marked as completed by " + current.Username
	} else {
		t.Status = next
		description = "Task approved by " + current.Username + ", forwarded to Group Head for final approval"
	}

	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	s.addActivity(ctx, task.NewActivity(id, current.ID, task.ActivityStatusChange, description))
	s.invalidate(ctx)

	logger.Info("Service: Задача подтверждена",
		zap.String("task_id", id.String()),
		zap.String("approver_id", current.ID.String()),
		zap.String("status", string(next)))
	return t, nil
}

// RequestHelp не трогает статус задачи, только пишет запрос и уведомляет руководителей команды
func (s *TaskService) RequestHelp(ctx context.Context, current *user.User, id uuid.UUID, reason string) (*task.HelpRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, NewValidationError("reason", "must not be empty")
	}

	t, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	req := &task.HelpRequest{
		ID:          uuid.New(),
		TaskID:      id,
		RequesterID: current.ID,
		Reason:      reason,
		Status:      task.HelpPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.activities.AddHelpRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("создание запроса помощи: %w", err)
	}
	s.addActivity(ctx, task.NewActivity(id, current.ID, task.ActivityHelpRequested, "Requested help: "+reason))

	heads, err := s.teamHeads(ctx, current)
	if err != nil {
		logger.Warn("Service: Не удалось найти руководителей команды", zap.Error(err))
	}
	if len(heads) > 0 {
		if err := s.notifier.HelpRequested(ctx, t, current, heads, reason); err != nil {
			logger.Warn("Service: Не удалось отправить уведомление о помощи",
				zap.String("task_id", id.String()),
				zap.Error(err))
		}
	}

	logger.Info("Service: Запрошена помощь",
		zap.String("task_id", id.String()),
		zap.String("requester_id", current.ID.String()))
	return req, nil
}

func (s *TaskService) teamHeads(ctx context.Context, u *user.User) ([]*user.User, error) {
	if u.TeamID == nil {
		return nil, nil
	}
	members, err := s.users.ListByTeam(ctx, *u.TeamID)
	if err != nil {
		return nil, err
	}
	heads := make([]*user.User, 0, 2)
	for _, m := range members {
		if m.Role.IsUnitLevelHead() && m.ID != u.ID {
			heads = append(heads, m)
		}
	}
	return heads, nil
}

func (s *TaskService) MarkViewed(ctx context.Context, current *user.User, id uuid.UUID) error {
	t, err := s.getTask(ctx, id)
	if err != nil {
		return err
	}
	if !t.HasAssignee(current.ID) {
		return NewNotFound(ResourceAssignment, id.String())
	}
	if !t.IsNewFor(current.ID) {
		return nil
	}

	if err := s.tasks.MarkViewed(ctx, id, current.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(ResourceAssignment, id.String())
		}
		return fmt.Errorf("отметка просмотра: %w", err)
	}
	return nil
}

// UploadEvidence сохраняет файл как evidence_{id}_{unix}{ext} и прикрепляет его к задаче
func (s *TaskService) UploadEvidence(ctx context.Context, current *user.User, id uuid.UUID, filename string, r io.Reader) (*EvidenceResult, error) {
	if s.evidence == nil {
		return nil, errors.New("хранилище файлов не настроено")
	}

	t, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	filename = filepath.Base(filename)
	name := fmt.Sprintf("evidence_%s_%d%s", id, time.Now().Unix(), strings.ToLower(filepath.Ext(filename)))
	url, err := s.evidence.Save(ctx, name, r)
	if err != nil {
		return nil, fmt.Errorf("сохранение файла: %w", err)
	}

	t.EvidenceURL = url
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	s.addActivity(ctx, task.NewActivity(id, current.ID, task.ActivityEvidenceUploaded, "Uploaded evidence: "+filename))

	logger.Info("Service: Загружено подтверждение",
		zap.String("task_id", id.String()),
		zap.String("url", url))
	return &EvidenceResult{Filename: filename, URL: url}, nil
}

// RemindOverdue уведомляет исполнителей просроченных задач, каждую задачу один раз
func (s *TaskService) RemindOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	tasks, err := s.tasks.GetTasksDueBefore(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("получение просроченных задач: %w", err)
	}

	reminded := 0
	for _, t := range tasks {
		if ctx.Err() != nil {
			return reminded, ctx.Err()
		}

		assignees := make([]*user.User, 0, len(t.Assignees))
		for _, id := range t.AssigneeIDs() {
			u, err := s.users.GetByID(ctx, id)
			if err != nil {
				continue
			}
			assignees = append(assignees, u)
		}

		if err := s.notifier.DeadlinePassed(ctx, t, assignees); err != nil {
			logger.Warn("Service: Не удалось отправить напоминание",
				zap.String("task_id", t.UUID.String()),
				zap.Error(err))
		}
		if err := s.tasks.MarkReminded(ctx, t.UUID, now); err != nil {
			logger.Warn("Service: Не удалось отметить напоминание",
				zap.String("task_id", t.UUID.String()),
				zap.Error(err))
			continue
		}
		s.addActivity(ctx, task.NewActivity(t.UUID, t.AssignerID, task.ActivityStatusChange, "Deadline passed"))
		reminded++
	}
	return reminded, nil
}

type nopNotifier struct{}

func (nopNotifier) TaskAssigned(context.Context, *task.Task, *user.User, []*user.User) error {
	return nil
}

func (nopNotifier) HelpRequested(context.Context, *task.Task, *user.User, []*user.User, string) error {
	return nil
}

func (nopNotifier) DeadlinePassed(context.Context, *task.Task, []*user.User) error {
	return nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, string, any) (bool, error) {
	return false, nil
}

func (nopCache) Set(context.Context, string, any, time.Duration) error {
	return nil
}

func (nopCache) InvalidatePrefix(context.Context, string) error {
	return nil
}
