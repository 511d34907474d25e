package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventDeleted EventKind = "deleted"
)

// TransactionEvent announces a committed store write. It carries ids only;
// consumers re-read the store for content.
type TransactionEvent struct {
	Kind      EventKind `json:"kind"`
	IDs       []string  `json:"ids,omitempty"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(kind EventKind, ids ...string) *TransactionEvent {
	return &TransactionEvent{
		Kind:      kind,
		IDs:       ids,
		Count:     len(ids),
		Timestamp: time.Now().UTC(),
	}
}

func (e *TransactionEvent) Validate() error {
	switch e.Kind {
	case EventCreated, EventDeleted:
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.Count < 0 {
		return errors.New("negative count")
	}
	return nil
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates a message body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}
