package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskPriority represents how urgently a task needs attention
type TaskPriority string

const (
	TaskPriorityUrgent    TaskPriority = "Urgent"
	TaskPriorityImportant TaskPriority = "Important"
	TaskPriorityMedium    TaskPriority = "Medium"
	TaskPriorityLow       TaskPriority = "Low"
)

// PriorityRank returns a sortable rank for a priority, higher is more urgent.
// Unknown priorities rank below Low.
func PriorityRank(p TaskPriority) int {
	switch p {
	case TaskPriorityUrgent:
		return 4
	case TaskPriorityImportant:
		return 3
	case TaskPriorityMedium:
		return 2
	case TaskPriorityLow:
		return 1
	default:
		return 0
	}
}

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "Open"
	TaskStatusOngoing   TaskStatus = "Ongoing"
	TaskStatusCompleted TaskStatus = "Completed"
)

// ExtractedTask is a work item produced from an actionable message or
// created manually through the API. Deadline is nil only between
// extraction and scheduling; every persisted Open/Ongoing task carries
// a scheduler-assigned work-slot deadline.
type ExtractedTask struct {
	ID              uuid.UUID    `json:"id"`
	UserID          uuid.UUID    `json:"user_id"`
	Subject         string       `json:"subject"`
	Description     string       `json:"description"`
	Priority        TaskPriority `json:"priority"`
	Status          TaskStatus   `json:"status"`
	Deadline        *time.Time   `json:"deadline,omitempty"`
	SourceMessageID *string      `json:"source_message_id,omitempty"`
	RemoteTaskID    *string      `json:"remote_task_id,omitempty"`
	RemoteListID    *string      `json:"remote_list_id,omitempty"`
	RelevanceScore  float64      `json:"relevance_score"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
}
