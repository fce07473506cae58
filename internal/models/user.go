package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered mailbox owner. ProviderID is the
// identity-provider object id and doubles as the Graph API user id
// for mailbox and To Do calls.
type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	ProviderID    *string   `json:"provider_id,omitempty"`
	Name          *string   `json:"name,omitempty"`
	Department    *string   `json:"department,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
