package models

import (
	"time"

	"github.com/google/uuid"
)

// LogRecord is one audit entry: who (CreatedBy) did what (Action) to which
// object. Records are never updated once stored.
type LogRecord struct {
	ID          uuid.UUID `json:"id"`
	CreatedBy   string    `json:"createdBy"`
	Type        string    `json:"type"`
	Action      string    `json:"action"`
	Unicode     string    `json:"unicode,omitempty"`
	Description string    `json:"description,omitempty"`
	Object      string    `json:"object"`
	NewData     any       `json:"newData,omitempty"` // schema-less JSON document
	CreatedAt   time.Time `json:"createdAt"`
}
