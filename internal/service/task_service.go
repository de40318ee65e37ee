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
	"syncdeck/internal/resolver"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь проверяются права и бизнес-правила задач, хранилище о них не знает

const analyticsPrefix = "analytics:"

type CreateTaskInput struct {
	Title       string
	Description string
	Status      task.Status
	Criticality task.Criticality
	Deadline    *time.Time
	IsInternal  bool
	AssigneeIDs []uuid.UUID
}

// UpdateTaskInput: nil-поля не меняются. Version, если задан, сверяется с текущей версией задачи.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *task.Status
	Criticality *task.Criticality
	Progress    *int
	Deadline    *time.Time
	AssigneeIDs []uuid.UUID
	IsInternal  *bool
	Version     *int
}

type TaskService struct {
	tasks      TaskRepository
	activities ActivityRepository
	comments   CommentRepository
	users      UserRepository
	notifier   Notifier
	evidence   EvidenceStore
	cache      Cache
	cacheTTL   time.Duration
}

type TaskServiceOption func(*TaskService)

func WithNotifier(n Notifier) TaskServiceOption {
	return func(s *TaskService) {
		s.notifier = n
	}
}

func WithEvidenceStore(store EvidenceStore) TaskServiceOption {
	return func(s *TaskService) {
		s.evidence = store
	}
}

func WithCache(c Cache, ttl time.Duration) TaskServiceOption {
	return func(s *TaskService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func NewTaskService(tasks TaskRepository, activities ActivityRepository, comments CommentRepository, users UserRepository, options ...TaskServiceOption) *TaskService {
	s := &TaskService{
		tasks:      tasks,
		activities: activities,
		comments:   comments,
		users:      users,
		notifier:   nopNotifier{},
		cache:      nopCache{},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.tasks.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) Create(ctx context.Context, current *user.User, in CreateTaskInput) (*task.Task, error) {
	if !current.Role.CanCreateTasks() {
		return nil, NewForbidden("Members cannot create tasks")
	}
	if in.IsInternal && !current.Role.IsUnitLevelHead() {
		return nil, NewForbidden("Only Unit Heads (or Backups) can create internal tasks")
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, NewValidationError("title", "must not be empty")
	}
	if in.Criticality == "" {
		in.Criticality = task.CriticalityMedium
	}
	if !in.Criticality.Valid() {
		return nil, NewValidationError("criticality", "must be low, medium or high")
	}
	// новая задача всегда начинается с нуля, поэтому допустимы только стартовые статусы
	switch in.Status {
	case "":
		in.Status = task.StatusNotStarted
	case task.StatusNotStarted, task.StatusOngoing:
	default:
		return nil, NewValidationError("status", "new task must be not_started or ongoing")
	}

	assignees, err := s.loadUsers(ctx, in.AssigneeIDs)
	if err != nil {
		return nil, err
	}

	t := &task.Task{
		UUID:        uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Criticality: in.Criticality,
		AssignerID:  current.ID,
		IsInternal:  in.IsInternal,
		CreatedAt:   time.Now().UTC(),
		Version:     1,
	}
	task.Apply(t, task.WithDeadline(in.Deadline), task.WithAssignees(in.AssigneeIDs))

	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	s.notifyAssigned(ctx, t, current, assignees)
	s.invalidate(ctx)

	logger.Info("Service: Задача создана",
		zap.String("task_id", t.UUID.String()),
		zap.String("assigner_id", current.ID.String()),
		zap.Int("assignees", len(t.Assignees)))
	return t, nil
}

func (s *TaskService) List(ctx context.Context, current *user.User, page, limit int) ([]*task.Task, error) {
	vis, err := s.visibility(ctx, current)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, task.Filter{Visibility: vis}, page, limit)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

// visibility: group head видит все не внутренние задачи, руководитель команды -
// задачи своей команды, участник - только назначенные ему. Свои задачи автор видит всегда.
func (s *TaskService) visibility(ctx context.Context, current *user.User) (task.Visibility, error) {
	self := current.ID

	switch current.Role {
	case user.RoleGroupHead:
		return task.Visibility{All: true, ExcludeInternal: true, Assigner: &self}, nil
	case user.RoleUnitHead, user.RoleBackupUnitHead:
		if current.TeamID == nil {
			return task.Visibility{AnyAssignee: []uuid.UUID{self}, Assigner: &self}, nil
		}
		members, err := s.users.ListByTeam(ctx, *current.TeamID)
		if err != nil {
			return task.Visibility{}, fmt.Errorf("получение команды: %w", err)
		}
		ids := make([]uuid.UUID, 0, len(members)+1)
		ids = append(ids, self)
		for _, m := range members {
			if m.ID != self {
				ids = append(ids, m.ID)
			}
		}
		return task.Visibility{AnyAssignee: ids, Assigner: &self}, nil
	case user.RoleMember:
		return task.Visibility{AnyAssignee: []uuid.UUID{self}}, nil
	}
	return task.Visibility{AnyAssignee: []uuid.UUID{self}}, nil
}

func (s *TaskService) Get(ctx context.Context, current *user.User, id uuid.UUID) (*task.Task, error) {
	t, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	vis, err := s.visibility(ctx, current)
	if err != nil {
		return nil, err
	}
	if !vis.Allows(t) {
		logger.Info("Service: Задача скрыта от пользователя",
			zap.String("task_id", id.String()),
			zap.String("user_id", current.ID.String()))
		return nil, NewNotFound(ResourceTask, id.String())
	}
	return t, nil
}

// Update меняет метаданные; доступно автору задачи и group head
func (s *TaskService) Update(ctx context.Context, current *user.User, id uuid.UUID, in UpdateTaskInput) (*task.Task, error) {
	t, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Version != nil && *in.Version != t.Version {
		return nil, NewVersionConflict(id.String())
	}

	perms := resolver.PermissionsFor(resolver.ActorOf(current), t)
	if !perms.CanEditMetadata {
		return nil, NewForbidden("Only the assigner or a Group Head can edit this task")
	}
	if in.IsInternal != nil && *in.IsInternal && !t.IsInternal && !current.Role.IsUnitLevelHead() {
		return nil, NewForbidden("Only Unit Heads (or Backups) can create internal tasks")
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, NewValidationError("title", "must not be empty")
	}
	if in.Criticality != nil && !in.Criticality.Valid() {
		return nil, NewValidationError("criticality", "must be low, medium or high")
	}

	var added []*user.User
	if in.AssigneeIDs != nil {
		next, err := s.loadUsers(ctx, in.AssigneeIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range next {
			if !t.HasAssignee(u.ID) {
				added = append(added, u)
			}
		}
	}

	prevStatus, prevProgress := t.Status, t.Progress
	progress, status := t.Progress, t.Status
	switch {
	case in.Progress != nil && in.Status != nil:
		progress, status = *in.Progress, *in.Status
	case in.Progress != nil:
		progress = *in.Progress
		status = resolver.DeriveStatus(progress, true, t.Status)
	case in.Status != nil:
		status = *in.Status
		// прямое завершение или сброс статуса тянет за собой прогресс
		switch status {
		case task.StatusCompleted, task.StatusPendingApproval:
			progress = 100
		case task.StatusNotStarted:
			progress = 0
		}
	}
	if progress != prevProgress || status != prevStatus {
		if err := checkForward(prevStatus, status); err != nil {
			return nil, err
		}
		if err := checkTransition(progress, status, perms.CanEditMetadata); err != nil {
			return nil, err
		}
	}

	var title string
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
	}
	var criticality task.Criticality
	if in.Criticality != nil {
		criticality = *in.Criticality
	}
	task.Apply(t,
		task.WithTitle(title),
		task.WithDescription(in.Description),
		task.WithCriticality(criticality),
		task.WithDeadline(in.Deadline),
		task.WithAssignees(in.AssigneeIDs),
		task.WithInternal(in.IsInternal),
	)
	applyProgress(t, progress, status)

	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	if status != prevStatus {
		s.addActivity(ctx, task.NewActivity(t.UUID, current.ID, task.ActivityStatusChange,
			"Status changed to "+HumanizeStatus(status)))
	}
	if progress != prevProgress {
		s.addActivity(ctx, task.NewActivity(t.UUID, current.ID, task.ActivityProgressUpdate,
			fmt.Sprintf("Progress updated to %d%%", progress)))
	}
	s.notifyAssigned(ctx, t, current, added)
	s.invalidate(ctx)

	logger.Info("Service: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Int("version", t.Version))
	return t, nil
}

// Delete доступно автору задачи и любому руководителю
func (s *TaskService) Delete(ctx context.Context, current *user.User, id uuid.UUID) error {
	t, err := s.getTask(ctx, id)
	if err != nil {
		return err
	}
	if current.ID != t.AssignerID && !current.Role.IsHead() {
		return NewForbidden("Not authorized to delete this task")
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(ResourceTask, id.String())
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}
	s.invalidate(ctx)

	logger.Info("Service: Задача удалена",
		zap.String("task_id", id.String()),
		zap.String("deleted_by", current.ID.String()))
	return nil
}

func (s *TaskService) Timeline(ctx context.Context, id uuid.UUID) ([]*task.Activity, error) {
	if _, err := s.getTask(ctx, id); err != nil {
		return nil, err
	}
	activities, err := s.activities.ListActivities(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение ленты: %w", err)
	}
	return activities, nil
}

func (s *TaskService) getTask(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound(ResourceTask, id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) save(ctx context.Context, t *task.Task) error {
	if err := s.tasks.Update(ctx, t); err != nil {
		if errors.Is(err, rep.ErrVersionConflict) {
			logger.Warn("Service: Конфликт версий",
				zap.String("task_id", t.UUID.String()),
				zap.Int("expected_version", t.Version))
			return NewVersionConflict(t.UUID.String())
		}
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(ResourceTask, t.UUID.String())
		}
		return fmt.Errorf("обновление задачи: %w", err)
	}
	return nil
}

func (s *TaskService) loadUsers(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	users := make([]*user.User, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, rep.ErrNotFound) {
				return nil, NewNotFound(ResourceUser, id.String())
			}
			return nil, fmt.Errorf("получение исполнителя: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

// addActivity: лента вторична, ошибка записи не отменяет изменение задачи
func (s *TaskService) addActivity(ctx context.Context, a *task.Activity) {
	if err := s.activities.AddActivity(ctx, a); err != nil {
		logger.Error("Service: Не удалось записать событие", err,
			zap.String("task_id", a.TaskID.String()),
			zap.String("activity_type", string(a.Type)))
	}
}

func (s *TaskService) notifyAssigned(ctx context.Context, t *task.Task, assigner *user.User, assignees []*user.User) {
	if len(assignees) == 0 {
		return
	}
	if err := s.notifier.TaskAssigned(ctx, t, assigner, assignees); err != nil {
		logger.Warn("Service: Не удалось отправить уведомление о назначении",
			zap.String("task_id", t.UUID.String()),
			zap.Error(err))
	}
}

func (s *TaskService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidatePrefix(ctx, analyticsPrefix); err != nil {
		logger.Warn("Service: Не удалось сбросить кеш аналитики", zap.Error(err))
	}
}

func checkTransition(progress int, status task.Status, canEditMetadata bool) error {
	err := resolver.ValidateTransition(progress, status, canEditMetadata)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, resolver.ErrNotAllowed):
		return NewForbidden("Only the assigner or a Group Head can mark a task as completed")
	case errors.Is(err, resolver.ErrProgressRange):
		return NewValidationError("progress_percentage", "Progress must be between 0 and 100")
	default:
		return NewBusinessError(CodeValidation,
			fmt.Sprintf("Status %s does not match progress %d%%", status, progress),
			ToDetail("field", "status"),
			ToDetail("progress_percentage", progress))
	}
}

// checkForward: на второй уровень подтверждения задачу переводит только Approve
func checkForward(prev, next task.Status) error {
	if next == task.StatusPendingGroupHeadApproval && prev != task.StatusPendingGroupHeadApproval {
		return NewForbidden("Only approval can forward a task to Group Head")
	}
	return nil
}

// applyProgress ставит пару прогресс/статус и ведёт completed_at
func applyProgress(t *task.Task, progress int, status task.Status) {
	t.Progress = progress
	t.Status = status
	if status == task.StatusCompleted {
		if t.CompletedAt == nil {
			now := time.Now().UTC()
			t.CompletedAt = &now
		}
		return
	}
	t.CompletedAt = nil
}

// HumanizeStatus: waiting_on_external -> Waiting On External
func HumanizeStatus(s task.Status) string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
