package models

import (
	"time"

	"github.com/google/uuid"
)

// PatternType determines how an actionable pattern is matched against text
type PatternType string

const (
	// PatternTypeWord matches as a case-insensitive whole word
	PatternTypeWord PatternType = "word"
	// PatternTypePhrase matches as a case-insensitive substring
	PatternTypePhrase PatternType = "phrase"
	// PatternTypeRegex matches as a case-insensitive regular expression
	PatternTypeRegex PatternType = "regex"
)

// ActionablePattern is an admin-curated rule whose match on a message
// implies the message warrants a task.
type ActionablePattern struct {
	ID           uuid.UUID    `json:"id"`
	Pattern      string       `json:"pattern"`
	PatternType  PatternType  `json:"pattern_type"`
	Label        string       `json:"label,omitempty"`
	PriorityHint TaskPriority `json:"priority_hint,omitempty"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
