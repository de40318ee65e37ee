// Package resolver держит правила согласования прогресса и статуса задачи
// и права пользователя на её изменение. Пакет без зависимостей от хранилищ:
// его используют и сервер (проверка входящих изменений), и клиент (вычисление
// статуса перед отправкой).
package resolver

import (
	"errors"

	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"

	"github.com/google/uuid"
)

var (
	ErrNotAllowed        = errors.New("действие не разрешено")
	ErrNotPending        = errors.New("задача не ожидает подтверждения")
	ErrProgressRange     = errors.New("прогресс должен быть в диапазоне 0..100")
	ErrInconsistentState = errors.New("статус не соответствует прогрессу")
)

// Actor - минимум сведений о пользователе, нужный для проверки прав
type Actor struct {
	ID   uuid.UUID
	Role user.Role
}

func ActorOf(u *user.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

type Permissions struct {
	IsAssigner      bool
	IsAssignee      bool
	CanEditMetadata bool
}

// PermissionsFor: метаданные (название, описание, критичность, дедлайн,
// исполнители и прямое завершение) меняют только автор задачи и group head.
func PermissionsFor(a Actor, t *task.Task) Permissions {
	isAssigner := a.ID == t.AssignerID
	return Permissions{
		IsAssigner:      isAssigner,
		IsAssignee:      t.HasAssignee(a.ID),
		CanEditMetadata: a.Role == user.RoleGroupHead || isAssigner,
	}
}

// DeriveStatus вычисляет статус после изменения прогресса
func DeriveStatus(newProgress int, canEditMetadata bool, prev task.Status) task.Status {
	switch {
	case newProgress >= 100:
		if canEditMetadata {
			return task.StatusCompleted
		}
		return task.StatusPendingApproval
	case newProgress <= 0:
		return task.StatusNotStarted
	}

	switch prev {
	case task.StatusNotStarted, task.StatusCompleted,
		task.StatusPendingApproval, task.StatusPendingGroupHeadApproval:
		return task.StatusOngoing
	}
	return prev
}

// ValidateTransition проверяет, что пара (прогресс, статус) согласована
// и что завершить задачу напрямую пытается тот, кому это разрешено.
func ValidateTransition(progress int, status task.Status, canEditMetadata bool) error {
	if progress < 0 || progress > 100 {
		return ErrProgressRange
	}
	if !status.Valid() {
		return ErrInconsistentState
	}
	if status == task.StatusCompleted && !canEditMetadata {
		return ErrNotAllowed
	}

	switch progress {
	case 0:
		// новая задача может сразу стартовать как ongoing с нулевым прогрессом
		if status != task.StatusNotStarted && status != task.StatusOngoing {
			return ErrInconsistentState
		}
	case 100:
		switch status {
		case task.StatusCompleted, task.StatusPendingApproval, task.StatusPendingGroupHeadApproval:
		default:
			return ErrInconsistentState
		}
	default:
		switch status {
		case task.StatusNotStarted, task.StatusCompleted,
			task.StatusPendingApproval, task.StatusPendingGroupHeadApproval:
			return ErrInconsistentState
		}
	}
	return nil
}
