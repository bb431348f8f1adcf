package services

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive-be/internal/apperr"
	"github.com/taskhive/taskhive-be/internal/models"
)

// Broadcaster pushes event payloads to connected clients. Satisfied by the
// websocket hub; nil disables live updates (useful in tests).
type Broadcaster interface {
	Broadcast(message []byte)
	BroadcastTo(listID string, message []byte)
}

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	RecordEvent(eventType, level, message string, listID *string)
	GetRecentEvents(limit int) ([]models.Event, error)
}

// EventService records activity and pushes it to subscribed clients.
type EventService struct {
	db  *sql.DB
	hub Broadcaster
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, hub Broadcaster) *EventService {
	return &EventService{db: db, hub: hub}
}

// RecordEvent logs a new event and broadcasts it. Event recording is a side
// effect of a mutation that already succeeded, so failures are logged rather
// than surfaced to the caller.
func (s *EventService) RecordEvent(eventType, level, message string, listID *string) {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		ListID:    listID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		"INSERT INTO events (id, type, level, message, list_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.ListID, formatTime(event.CreatedAt),
	)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
		return
	}

	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{"action": "event", "payload": event})
	if err != nil {
		return
	}
	if listID != nil {
		s.hub.BroadcastTo(*listID, payload)
	} else {
		s.hub.Broadcast(payload)
	}
}

// GetRecentEvents retrieves the most recent events.
func (s *EventService) GetRecentEvents(limit int) ([]models.Event, error) {
	rows, err := s.db.Query(
		"SELECT id, type, level, message, list_id, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		var createdAt string
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.ListID, &createdAt); err != nil {
			return nil, apperr.Internal(err)
		}
		event.CreatedAt = parseTime(createdAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return events, nil
}
