package client

import (
	"context"
	"errors"
	"slices"
	"time"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"
	"syncdeck/internal/resolver"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskEditor держит локальную правку задачи. Прогресс и статус всегда согласованы
// правилами resolver; при неудачном сохранении правка откатывается к последнему
// состоянию с сервера, при удачном задача перечитывается.
type TaskEditor struct {
	client *Client
	actor  resolver.Actor
	saved  Task
	draft  Task
	// summary отправляется вместе с прогрессом и после сохранения сбрасывается
	summary string
}

// EditTask загружает задачу и открывает редактор от имени viewer
func (c *Client) EditTask(ctx context.Context, viewer *user.User, id uuid.UUID) (*TaskEditor, error) {
	t, err := c.Task(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewTaskEditor(c, viewer, *t), nil
}

func NewTaskEditor(c *Client, viewer *user.User, t Task) *TaskEditor {
	return &TaskEditor{
		client: c,
		actor:  resolver.ActorOf(viewer),
		saved:  t.clone(),
		draft:  t.clone(),
	}
}

// Task - текущая локальная версия
func (e *TaskEditor) Task() Task {
	return e.draft.clone()
}

// Saved - последнее состояние, подтверждённое сервером
func (e *TaskEditor) Saved() Task {
	return e.saved.clone()
}

func (e *TaskEditor) Permissions() resolver.Permissions {
	return resolver.PermissionsFor(e.actor, e.saved.model())
}

func (e *TaskEditor) CanApprove() bool {
	return resolver.CanApprove(e.actor, e.saved.model())
}

// SetProgress меняет прогресс и пересчитывает статус
func (e *TaskEditor) SetProgress(percent int) {
	percent = resolver.Clamp(percent)
	e.draft.Status = resolver.DeriveStatus(percent, e.Permissions().CanEditMetadata, e.draft.Status)
	e.draft.Progress = percent

	label := resolver.ProgressLabel(percent)
	e.draft.ProgressLabel = label.Text
	e.draft.ProgressColor = label.Color
}

// SetStatus задаёт статус явно; пара с текущим прогрессом должна пройти проверку
func (e *TaskEditor) SetStatus(status task.Status) error {
	if err := resolver.ValidateTransition(e.draft.Progress, status, e.Permissions().CanEditMetadata); err != nil {
		return err
	}
	e.draft.Status = status
	return nil
}

func (e *TaskEditor) SetSummary(text string) {
	e.summary = text
}

func (e *TaskEditor) requireMetadata() error {
	if !e.Permissions().CanEditMetadata {
		return resolver.ErrNotAllowed
	}
	return nil
}

func (e *TaskEditor) SetTitle(title string) error {
	if err := e.requireMetadata(); err != nil {
		return err
	}
	e.draft.Title = title
	return nil
}

func (e *TaskEditor) SetDescription(description string) error {
	if err := e.requireMetadata(); err != nil {
		return err
	}
	e.draft.Description = description
	return nil
}

func (e *TaskEditor) SetCriticality(c task.Criticality) error {
	if err := e.requireMetadata(); err != nil {
		return err
	}
	e.draft.Criticality = c
	return nil
}

// ErrClearDeadline: PUT не умеет снимать дедлайн, пустое значение сервер пропускает
var ErrClearDeadline = errors.New("дедлайн нельзя снять, только перенести")

func (e *TaskEditor) SetDeadline(deadline *time.Time) error {
	if err := e.requireMetadata(); err != nil {
		return err
	}
	if deadline == nil {
		return ErrClearDeadline
	}
	e.draft.Deadline = deadline
	return nil
}

func (e *TaskEditor) SetAssignees(ids []uuid.UUID) error {
	if err := e.requireMetadata(); err != nil {
		return err
	}
	e.draft.AssigneeIDs = append([]uuid.UUID(nil), ids...)
	return nil
}

func (e *TaskEditor) progressChanged() bool {
	return e.draft.Progress != e.saved.Progress || e.draft.Status != e.saved.Status || e.summary != ""
}

func (e *TaskEditor) metadataChanges() UpdateTaskRequest {
	var req UpdateTaskRequest
	if e.draft.Title != e.saved.Title {
		req.Title = &e.draft.Title
	}
	if e.draft.Description != e.saved.Description {
		req.Description = &e.draft.Description
	}
	if e.draft.Criticality != e.saved.Criticality {
		req.Criticality = &e.draft.Criticality
	}
	if !sameTime(e.draft.Deadline, e.saved.Deadline) {
		req.Deadline = e.draft.Deadline
	}
	if !slices.Equal(e.draft.AssigneeIDs, e.saved.AssigneeIDs) {
		ids := e.draft.AssigneeIDs
		req.AssigneeIDs = &ids
	}
	return req
}

func (e *TaskEditor) Dirty() bool {
	return e.progressChanged() || !e.metadataChanges().empty()
}

// Revert отбрасывает локальные правки
func (e *TaskEditor) Revert() {
	e.draft = e.saved.clone()
	e.summary = ""
}

// Save отправляет прогресс через /update, затем метаданные через PUT, если есть права.
// Каждый шаг - один запрос без повторов. При ошибке локальная версия
// возвращается к последнему ответу сервера.
func (e *TaskEditor) Save(ctx context.Context) (Task, error) {
	id := e.saved.ID
	meta := e.metadataChanges()

	if e.progressChanged() {
		updated, err := e.client.UpdateProgress(ctx, id, ProgressRequest{
			Progress:    e.draft.Progress,
			Status:      e.draft.Status,
			SummaryText: e.summary,
		})
		if err != nil {
			return e.fail(id, err)
		}
		e.saved = updated.clone()
		e.summary = ""
	}

	if !meta.empty() && e.Permissions().CanEditMetadata {
		version := e.saved.Version
		meta.Version = &version
		updated, err := e.client.UpdateTask(ctx, id, meta)
		if err != nil {
			return e.fail(id, err)
		}
		e.saved = updated.clone()
	}

	fresh, err := e.client.Task(ctx, id)
	if err != nil {
		// изменения уже приняты, остаёмся на последнем ответе сервера
		e.draft = e.saved.clone()
		return e.draft.clone(), err
	}
	e.saved = fresh.clone()
	e.draft = fresh.clone()
	return e.draft.clone(), nil
}

func (e *TaskEditor) fail(id uuid.UUID, err error) (Task, error) {
	if !IsCanceled(err) {
		logger.Warn("Client: Изменение задачи не сохранено, правка откатывается",
			zap.String("task_id", id.String()),
			zap.Error(err))
	}
	e.Revert()
	return e.draft.clone(), err
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
