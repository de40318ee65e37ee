package client

import (
	"time"

	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"
	"syncdeck/internal/resolver"

	"github.com/google/uuid"
)

// Task - задача в том виде, в каком её отдаёт API конкретному пользователю
type Task struct {
	ID            uuid.UUID         `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Status        task.Status       `json:"status"`
	Criticality   task.Criticality  `json:"criticality"`
	Progress      int               `json:"progress_percentage"`
	ProgressLabel string            `json:"progress_label"`
	ProgressColor resolver.Color    `json:"progress_color"`
	AssignerID    uuid.UUID         `json:"assigner_id"`
	AssigneeIDs   []uuid.UUID       `json:"assignee_ids"`
	Assignees     []task.Assignment `json:"assignees"`
	Deadline      *time.Time        `json:"deadline"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     *time.Time        `json:"updated_at,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at"`
	EvidenceURL   *string           `json:"evidence_url"`
	IsInternal    bool              `json:"is_internal"`
	IsNew         bool              `json:"is_new"`
	Version       int               `json:"version"`
}

// clone копирует задачу вместе со срезами и указателями
func (t Task) clone() Task {
	c := t
	c.AssigneeIDs = append([]uuid.UUID(nil), t.AssigneeIDs...)
	c.Assignees = append([]task.Assignment(nil), t.Assignees...)
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	return c
}

// model переводит задачу в доменную модель для правил resolver и выгрузки
func (t Task) model() *task.Task {
	m := &task.Task{
		UUID:        t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Criticality: t.Criticality,
		Progress:    t.Progress,
		AssignerID:  t.AssignerID,
		Assignees:   t.Assignees,
		Deadline:    t.Deadline,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
		IsInternal:  t.IsInternal,
		Version:     t.Version,
	}
	if len(m.Assignees) == 0 {
		for _, id := range t.AssigneeIDs {
			m.Assignees = append(m.Assignees, task.Assignment{UserID: id})
		}
	}
	if t.EvidenceURL != nil {
		m.EvidenceURL = *t.EvidenceURL
	}
	return m
}

type CreateTaskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Status      task.Status      `json:"status,omitempty"`
	Criticality task.Criticality `json:"criticality,omitempty"`
	Deadline    *time.Time       `json:"deadline,omitempty"`
	IsInternal  bool             `json:"is_internal"`
	AssigneeIDs []uuid.UUID      `json:"assignee_ids"`
}

// UpdateTaskRequest - частичное изменение, nil-поля не отправляются
type UpdateTaskRequest struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Status      *task.Status      `json:"status,omitempty"`
	Criticality *task.Criticality `json:"criticality,omitempty"`
	Progress    *int              `json:"progress_percentage,omitempty"`
	Deadline    *time.Time        `json:"deadline,omitempty"`
	AssigneeIDs *[]uuid.UUID      `json:"assignee_ids,omitempty"`
	IsInternal  *bool             `json:"is_internal,omitempty"`
	Version     *int              `json:"version,omitempty"`
}

func (r UpdateTaskRequest) empty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil && r.Criticality == nil &&
		r.Progress == nil && r.Deadline == nil && r.AssigneeIDs == nil && r.IsInternal == nil
}

type ProgressRequest struct {
	Progress    int         `json:"progress_percentage"`
	Status      task.Status `json:"status,omitempty"`
	SummaryText string      `json:"summary_text"`
}

type EvidenceResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type Message struct {
	Message string `json:"message"`
}

type ReviewResult struct {
	Message string                `json:"message"`
	Request *user.DeletionRequest `json:"request"`
}

type TeamStat struct {
	Name      string `json:"name"`
	Tasks     int    `json:"tasks"`
	Completed int    `json:"completed"`
}

type StatusStat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Overview struct {
	TotalTasks     int          `json:"total_tasks"`
	CompletedTasks int          `json:"completed_tasks"`
	PendingTasks   int          `json:"pending_tasks"`
	TeamData       []TeamStat   `json:"team_data"`
	StatusData     []StatusStat `json:"status_data"`
}

// Period - выборка для отчёта о достижениях: week, month или явные даты
type Period struct {
	Name  string
	Start *time.Time
	End   *time.Time
}

type File struct {
	Filename    string
	ContentType string
	Body        []byte
}

type MFASetup struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}
