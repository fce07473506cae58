package models

import (
	"time"

	"github.com/google/uuid"
)

// ReferenceDocument is one entry in the reference corpus used as the
// statistical background for relevance scoring. The corpus is
// append-only: every synced message becomes a reference document
// regardless of whether it produced a task.
type ReferenceDocument struct {
	ID        uuid.UUID `json:"id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Tokens    []string  `json:"tokens"`
	CreatedAt time.Time `json:"created_at"`
}
