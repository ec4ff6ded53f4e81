package domain

import (
	"time"
)

// Event type constants for outbox events.
const (
	EventTypeManuscriptCreated      = "manuscript.created"
	EventTypeManuscriptUpdated      = "manuscript.updated"
	EventTypeManuscriptStateChanged = "manuscript.state_changed"
	EventTypeManuscriptDeleted      = "manuscript.deleted"
)

// AggregateTypeManuscript is the aggregate type of all manuscript events.
const AggregateTypeManuscript = "manuscript"

// OutboxStatus is the delivery status of an outbox event.
// These values must match the outbox_events.status check constraint.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusDead      OutboxStatus = "dead"
)

// OutboxEvent represents an event to be published via the outbox pattern.
type OutboxEvent struct {
	EventID       string
	EventVersion  int
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       []byte
	Metadata      map[string]string
	Status        OutboxStatus
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// ManuscriptCreatedPayload is the payload for manuscript.created events.
type ManuscriptCreatedPayload struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	AuthorEmail string `json:"author_email"`
	EditorEmail string `json:"editor_email"`
	State       State  `json:"state"`
}

// ManuscriptUpdatedPayload is the payload for manuscript.updated events.
type ManuscriptUpdatedPayload struct {
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
}

// ManuscriptStateChangedPayload is the payload for manuscript.state_changed events.
type ManuscriptStateChangedPayload struct {
	Title        string            `json:"title"`
	Action       Action            `json:"action"`
	From         State             `json:"from"`
	To           State             `json:"to"`
	Referee      string            `json:"referee,omitempty"`
	RefereeExtra map[string]string `json:"referee_extra,omitempty"`
	Referees     []string          `json:"referees"`
	History      []State           `json:"history"`
}

// ManuscriptDeletedPayload is the payload for manuscript.deleted events.
type ManuscriptDeletedPayload struct {
	Title string `json:"title"`
	State State  `json:"state"`
}
