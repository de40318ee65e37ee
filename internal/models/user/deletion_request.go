package user

import (
	"time"

	"github.com/google/uuid"
)

type DeletionStatus string

const (
	DeletionPending  DeletionStatus = "pending"
	DeletionApproved DeletionStatus = "approved"
	DeletionRejected DeletionStatus = "rejected"
)

func (s DeletionStatus) Valid() bool {
	switch s {
	case DeletionPending, DeletionApproved, DeletionRejected:
		return true
	}
	return false
}

// DeletionRequest - заявка руководителя команды на удаление участника,
// рассматривается group head
type DeletionRequest struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	UserID        uuid.UUID      `json:"user_id" db:"user_id"`
	RequestedByID uuid.UUID      `json:"requested_by_id" db:"requested_by_id"`
	Reason        string         `json:"reason" db:"reason"`
	Status        DeletionStatus `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	ReviewedAt    *time.Time     `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewedByID  *uuid.UUID     `json:"reviewed_by_id,omitempty" db:"reviewed_by_id"`
}

type AchievementStats struct {
	UserID                 uuid.UUID `json:"user_id"`
	OnTimeCompletionRate   int       `json:"on_time_completion_rate"`
	TotalCompletedTasks    int       `json:"total_completed_tasks"`
	CriticalTasksCompleted int       `json:"critical_tasks_completed"`
	CurrentNoBlockerStreak int       `json:"current_no_blocker_streak"`
	LastUpdated            time.Time `json:"last_updated"`
}
