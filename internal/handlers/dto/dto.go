package dto

import (
	"strings"
	"time"

	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"
	"syncdeck/internal/resolver"
	"syncdeck/internal/service"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      task.Status      `json:"status"`
	Criticality task.Criticality `json:"criticality"`
	Deadline    *time.Time       `json:"deadline"`
	IsInternal  bool             `json:"is_internal"`
	AssigneeIDs []uuid.UUID      `json:"assignee_ids"`
	// AssigneeID - старый формат с одним исполнителем
	AssigneeID *uuid.UUID `json:"assignee_id,omitempty"`
}

func (r CreateTaskRequest) ToInput() service.CreateTaskInput {
	ids := r.AssigneeIDs
	if len(ids) == 0 && r.AssigneeID != nil {
		ids = []uuid.UUID{*r.AssigneeID}
	}
	return service.CreateTaskInput{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Status:      r.Status,
		Criticality: r.Criticality,
		Deadline:    r.Deadline,
		IsInternal:  r.IsInternal,
		AssigneeIDs: ids,
	}
}

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

func (r UpdateTaskRequest) ToInput() service.UpdateTaskInput {
	in := service.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Criticality: r.Criticality,
		Progress:    r.Progress,
		Deadline:    r.Deadline,
		IsInternal:  r.IsInternal,
		Version:     r.Version,
	}
	if r.AssigneeIDs != nil {
		in.AssigneeIDs = *r.AssigneeIDs
		if in.AssigneeIDs == nil {
			in.AssigneeIDs = []uuid.UUID{}
		}
	}
	return in
}

type ProgressRequest struct {
	Progress    *int         `json:"progress_percentage"`
	Status      *task.Status `json:"status,omitempty"`
	SummaryText string       `json:"summary_text"`
}

func (r ProgressRequest) ToInput() service.ProgressInput {
	in := service.ProgressInput{Status: r.Status, Summary: r.SummaryText}
	if r.Progress != nil {
		in.Progress = *r.Progress
	}
	// пустой статус считается не переданным
	if in.Status != nil && *in.Status == "" {
		in.Status = nil
	}
	return in
}

type HelpRequest struct {
	Reason string `json:"reason"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

// TaskResponse - задача глазами конкретного пользователя: is_new и подпись прогресса
// зависят от того, кто смотрит
type TaskResponse struct {
	UUID          uuid.UUID         `json:"id"`
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

func FromTask(t *task.Task, viewer uuid.UUID) TaskResponse {
	label := resolver.ProgressLabel(t.Progress)
	resp := TaskResponse{
		UUID:          t.UUID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        t.Status,
		Criticality:   t.Criticality,
		Progress:      t.Progress,
		ProgressLabel: label.Text,
		ProgressColor: label.Color,
		AssignerID:    t.AssignerID,
		AssigneeIDs:   t.AssigneeIDs(),
		Assignees:     t.Assignees,
		Deadline:      t.Deadline,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		CompletedAt:   t.CompletedAt,
		IsInternal:    t.IsInternal,
		IsNew:         t.IsNewFor(viewer),
		Version:       t.Version,
	}
	if t.EvidenceURL != "" {
		url := t.EvidenceURL
		resp.EvidenceURL = &url
	}
	if resp.Assignees == nil {
		resp.Assignees = []task.Assignment{}
	}
	return resp
}

func FromTaskList(tasks []*task.Task, viewer uuid.UUID) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, viewer)
	}
	return result
}

type CreateUserRequest struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     user.Role  `json:"role"`
	TeamID   *uuid.UUID `json:"team_id"`
}

func (r CreateUserRequest) ToInput() service.CreateUserInput {
	return service.CreateUserInput{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		Role:     r.Role,
		TeamID:   r.TeamID,
	}
}

type UpdateUserRequest struct {
	Username  *string    `json:"username,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Password  *string    `json:"password,omitempty"`
	Role      *user.Role `json:"role,omitempty"`
	TeamID    *uuid.UUID `json:"team_id,omitempty"`
	ClearTeam bool       `json:"clear_team,omitempty"`
}

func (r UpdateUserRequest) ToInput() service.UpdateUserInput {
	return service.UpdateUserInput{
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		Role:      r.Role,
		TeamID:    r.TeamID,
		ClearTeam: r.ClearTeam,
	}
}

type DeletionRequestCreate struct {
	UserID uuid.UUID `json:"user_id"`
	Reason string    `json:"reason"`
}

type TeamRequest struct {
	Name string `json:"name"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
