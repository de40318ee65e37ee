package task

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityStatusChange     ActivityType = "status_change"
	ActivityProgressUpdate   ActivityType = "progress_update"
	ActivityCommentAdded     ActivityType = "comment_added"
	ActivityHelpRequested    ActivityType = "help_requested"
	ActivityEvidenceUploaded ActivityType = "evidence_uploaded"
)

// Activity - запись ленты событий задачи, после создания не меняется
type Activity struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	TaskID      uuid.UUID    `json:"task_id" db:"task_id"`
	UserID      uuid.UUID    `json:"user_id" db:"user_id"`
	Type        ActivityType `json:"activity_type" db:"activity_type"`
	Description string       `json:"description" db:"description"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

func NewActivity(taskID, userID uuid.UUID, kind ActivityType, description string) *Activity {
	return &Activity{
		ID:          uuid.New(),
		TaskID:      taskID,
		UserID:      userID,
		Type:        kind,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

type Comment struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TaskID    uuid.UUID  `json:"task_id" db:"task_id"`
	AuthorID  uuid.UUID  `json:"author_id" db:"author_id"`
	Content   string     `json:"content" db:"content"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

type ProgressUpdate struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TaskID      uuid.UUID `json:"task_id" db:"task_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	SummaryText string    `json:"summary_text" db:"summary_text"`
	Progress    int       `json:"progress_percentage" db:"progress_percentage"`
	Status      Status    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type HelpStatus string

const (
	HelpPending      HelpStatus = "pending"
	HelpAcknowledged HelpStatus = "acknowledged"
	HelpResolved     HelpStatus = "resolved"
)

type HelpRequest struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TaskID      uuid.UUID  `json:"task_id" db:"task_id"`
	RequesterID uuid.UUID  `json:"requester_id" db:"requester_id"`
	Reason      string     `json:"reason" db:"reason"`
	Status      HelpStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}
