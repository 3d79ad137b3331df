package realtime

import (
	"time"
)

// Priority classifies how urgent a notification is for the client UI.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
	PriorityInfo   Priority = "info"
)

// Notification type tags carried in the envelope "type" field.
const (
	TypeConnectionEstablished = "connection_established"
	TypeAssignmentCreated     = "assignment_created"
	TypeEvaluationCompleted   = "evaluation_completed"
	TypeDeadlineApproaching   = "deadline_approaching"
	TypeProjectUpdated        = "project_updated"
	TypeSystemMaintenance     = "system_maintenance"
)

// Envelope is the structured notification payload sent to clients.
// It is immutable once built; Data may be nil and then serializes as null.
type Envelope struct {
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
	Priority  Priority       `json:"priority"`
}

// NewEnvelope builds an envelope stamped with the current UTC time.
func NewEnvelope(typ, title, message string, data map[string]any, priority Priority) Envelope {
	return Envelope{
		Type:      typ,
		Title:     title,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Priority:  priority,
	}
}
