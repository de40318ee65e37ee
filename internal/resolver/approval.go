package resolver

import (
	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"
)

// CanApprove - можно ли показать пользователю действие подтверждения
func CanApprove(a Actor, t *task.Task) bool {
	if !t.Status.IsPendingApproval() {
		return false
	}
	return a.Role.IsHead() || a.ID == t.AssignerID
}

// ResolveApproval возвращает статус задачи после подтверждения.
// Задачу, поставленную group head, руководитель команды только передаёт
// дальше на pending_group_head_approval; завершает её group head.
func ResolveApproval(approver Actor, t *task.Task, assignerRole user.Role) (task.Status, error) {
	if !t.Status.IsPendingApproval() {
		return t.Status, ErrNotPending
	}
	if !CanApprove(approver, t) {
		return t.Status, ErrNotAllowed
	}

	if t.Status == task.StatusPendingGroupHeadApproval {
		if approver.Role == user.RoleGroupHead {
			return task.StatusCompleted, nil
		}
		return t.Status, ErrNotAllowed
	}

	switch assignerRole {
	case user.RoleGroupHead:
		switch approver.Role {
		case user.RoleGroupHead:
			return task.StatusCompleted, nil
		case user.RoleUnitHead, user.RoleBackupUnitHead:
			return task.StatusPendingGroupHeadApproval, nil
		case user.RoleMember:
			return t.Status, ErrNotAllowed
		}
	case user.RoleUnitHead, user.RoleBackupUnitHead:
		if approver.Role.IsHead() {
			return task.StatusCompleted, nil
		}
		return t.Status, ErrNotAllowed
	case user.RoleMember:
		return task.StatusCompleted, nil
	}
	return t.Status, ErrNotAllowed
}
