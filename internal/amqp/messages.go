package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// EventType names what happened to the ledger.
type EventType string

const (
	EventRecordCreated   EventType = "record.created"
	EventRecordDeleted   EventType = "record.deleted"
	EventImportCompleted EventType = "import.completed"
)

// LedgerEvent is a small notification; consumers read the ledger itself
// for details.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	Kind      string    `json:"kind,omitempty"`
	ID        string    `json:"id,omitempty"`
	Month     string    `json:"month,omitempty"`
	Source    string    `json:"source,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEvent(t EventType, kind, id, month string) LedgerEvent {
	return LedgerEvent{Type: t, Kind: kind, ID: id, Month: month, Timestamp: time.Now()}
}

func NewImportEvent(source string, count int) LedgerEvent {
	return LedgerEvent{Type: EventImportCompleted, Source: source, Count: count, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event and rejects unknown types.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return LedgerEvent{}, err
	}
	switch msg.Type {
	case EventRecordCreated, EventRecordDeleted, EventImportCompleted:
		return msg, nil
	}
	return LedgerEvent{}, errors.New("unknown event type: " + string(msg.Type))
}
