package task

import (
	"time"

	"github.com/google/uuid"
)

// TaskOption применяет к задаче одно изменение метаданных.
// Конструкторы возвращают nil, если менять нечего; Apply такие опции пропускает.
type TaskOption func(*Task)

func Apply(t *Task, options ...TaskOption) {
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
}

func WithTitle(title string) TaskOption {
	if title == "" {
		return nil
	}
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description *string) TaskOption {
	if description == nil {
		return nil
	}
	return func(task *Task) {
		task.Description = *description
	}
}

func WithCriticality(criticality Criticality) TaskOption {
	if criticality == "" {
		return nil
	}
	return func(task *Task) {
		task.Criticality = criticality
	}
}

func WithDeadline(deadline *time.Time) TaskOption {
	if deadline == nil {
		return nil
	}
	return func(task *Task) {
		d := deadline.UTC()
		task.Deadline = &d
		task.RemindedAt = nil
	}
}

// WithAssignees заменяет список исполнителей, сохраняя отметки просмотра у оставшихся
func WithAssignees(ids []uuid.UUID) TaskOption {
	if ids == nil {
		return nil
	}
	return func(task *Task) {
		now := time.Now().UTC()
		next := make([]Assignment, 0, len(ids))
		seen := make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if existing := task.Assignment(id); existing != nil {
				next = append(next, *existing)
				continue
			}
			next = append(next, Assignment{UserID: id, AssignedAt: now})
		}
		task.Assignees = next
	}
}

func WithInternal(internal *bool) TaskOption {
	if internal == nil {
		return nil
	}
	return func(task *Task) {
		task.IsInternal = *internal
	}
}
