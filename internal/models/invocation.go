package models

import (
	"time"

	"github.com/google/uuid"
)

// Invocation statuses.
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Invocation is the emulator's record of one invocation event. Payloads
// move through the queue, not the database; only their sizes are kept.
type Invocation struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Status       string     `json:"status" gorm:"not null;index"`
	EventSize    int        `json:"event_size"`
	ResultSize   int        `json:"result_size"`
	ErrorType    string     `json:"error_type,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ReceivedAt   time.Time  `json:"received_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DurationMs   int64      `json:"duration_ms"`
}
