package task

import (
	"time"

	"github.com/google/uuid"
)

type Status string
type Criticality string

const (
	StatusNotStarted               Status = "not_started"
	StatusOngoing                  Status = "ongoing"
	StatusCompleted                Status = "completed"
	StatusContinuous               Status = "continuous"
	StatusBlocked                  Status = "blocked"
	StatusWaitingOnExternal        Status = "waiting_on_external"
	StatusNeedsReview              Status = "needs_review"
	StatusPendingApproval          Status = "pending_approval"
	StatusPendingGroupHeadApproval Status = "pending_group_head_approval"
)

var Statuses = []Status{
	StatusNotStarted,
	StatusOngoing,
	StatusCompleted,
	StatusContinuous,
	StatusBlocked,
	StatusWaitingOnExternal,
	StatusNeedsReview,
	StatusPendingApproval,
	StatusPendingGroupHeadApproval,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsPendingApproval - задача ждёт подтверждения выполнения
func (s Status) IsPendingApproval() bool {
	return s == StatusPendingApproval || s == StatusPendingGroupHeadApproval
}

const (
	CriticalityLow    Criticality = "low"
	CriticalityMedium Criticality = "medium"
	CriticalityHigh   Criticality = "high"
)

func (c Criticality) Valid() bool {
	switch c {
	case CriticalityLow, CriticalityMedium, CriticalityHigh:
		return true
	}
	return false
}

type Assignment struct {
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	AssignedAt time.Time  `json:"assigned_at" db:"assigned_at"`
	ViewedAt   *time.Time `json:"viewed_at,omitempty" db:"viewed_at"`
}

type Task struct {
	UUID        uuid.UUID    `json:"id" db:"uuid"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Status      Status       `json:"status" db:"status"`
	Criticality Criticality  `json:"criticality" db:"criticality"`
	Progress    int          `json:"progress_percentage" db:"progress_percentage"`
	Assignees   []Assignment `json:"assignees" db:"-"`
	AssignerID  uuid.UUID    `json:"assigner_id" db:"assigner_id"`
	Deadline    *time.Time   `json:"deadline,omitempty" db:"deadline"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time   `json:"updated_at,omitempty" db:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	EvidenceURL string       `json:"evidence_url,omitempty" db:"evidence_url"`
	IsInternal  bool         `json:"is_internal" db:"is_internal"`
	RemindedAt  *time.Time   `json:"reminded_at,omitempty" db:"reminded_at"`
	Version     int          `json:"version" db:"version"`
}

func (t *Task) AssigneeIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		ids = append(ids, a.UserID)
	}
	return ids
}

func (t *Task) HasAssignee(id uuid.UUID) bool {
	return t.Assignment(id) != nil
}

func (t *Task) Assignment(id uuid.UUID) *Assignment {
	for i := range t.Assignees {
		if t.Assignees[i].UserID == id {
			return &t.Assignees[i]
		}
	}
	return nil
}

// IsNewFor - задача назначена пользователю, но он её ещё не открывал
func (t *Task) IsNewFor(id uuid.UUID) bool {
	a := t.Assignment(id)
	return a != nil && a.ViewedAt == nil
}

// Clone копирует задачу вместе со списком назначений,
// чтобы хранилище в памяти не отдавало наружу свои указатели
func (t *Task) Clone() *Task {
	c := *t
	c.Assignees = make([]Assignment, len(t.Assignees))
	copy(c.Assignees, t.Assignees)
	return &c
}

// Visibility описывает, какие задачи видит пользователь.
// Задача видна, если All, или среди исполнителей есть кто-то из AnyAssignee,
// или её автор Assigner. Внутренние задачи при ExcludeInternal видит только автор.
type Visibility struct {
	All             bool
	AnyAssignee     []uuid.UUID
	Assigner        *uuid.UUID
	ExcludeInternal bool
}

func (v Visibility) Allows(t *Task) bool {
	isAuthor := v.Assigner != nil && t.AssignerID == *v.Assigner
	if v.ExcludeInternal && t.IsInternal && !isAuthor {
		return false
	}
	if v.All || isAuthor {
		return true
	}
	for _, id := range v.AnyAssignee {
		if t.HasAssignee(id) {
			return true
		}
	}
	return false
}

// Filter - выборка задач для списков, отчётов и аналитики
type Filter struct {
	Visibility
	Statuses        []Status
	CompletedAfter  *time.Time
	CompletedBefore *time.Time
	// OrderByCompleted сортирует по completed_at, иначе по created_at, новые первыми
	OrderByCompleted bool
}

func (f Filter) Matches(t *Task) bool {
	if !f.Visibility.Allows(t) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if t.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CompletedAfter != nil && (t.CompletedAt == nil || t.CompletedAt.Before(*f.CompletedAfter)) {
		return false
	}
	if f.CompletedBefore != nil && (t.CompletedAt == nil || t.CompletedAt.After(*f.CompletedBefore)) {
		return false
	}
	return true
}
