package events

import "time"

const (
	CitationCreated        = "CITATION_CREATED"
	CitationSessionStarted = "CITATION_SESSION_STARTED"
)

// Event is anything published on the event bus.
type Event interface {
	// EventType is the bus subject suffix, e.g. "CITATION_CREATED".
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewCitationCreated describes a citation that was rendered and stored.
func NewCitationCreated(citeID, historyID, userID, style, mode string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: CitationCreated,
		Data: map[string]interface{}{
			"cite_id":     citeID,
			"history_id":  historyID,
			"user_id":     userID,
			"style":       style,
			"mode":        mode,
			"entity_type": "citation",
			"entity_id":   citeID,
			"occurred_at": at,
		},
		OccurredAt: at,
	}
}

func NewCitationSessionStarted(historyID, userID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: CitationSessionStarted,
		Data: map[string]interface{}{
			"history_id":  historyID,
			"user_id":     userID,
			"entity_type": "citation_session",
			"entity_id":   historyID,
			"occurred_at": at,
		},
		OccurredAt: at,
	}
}
