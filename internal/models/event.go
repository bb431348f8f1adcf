package models

import "time"

// Event represents a loggable action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "list.created", "task.overdue"
	Level     string    `json:"level"` // e.g., "info", "warn"
	Message   string    `json:"message"`
	ListID    *string   `json:"listId,omitempty"` // Nullable for system-wide events
	CreatedAt time.Time `json:"createdAt"`
}
