package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"financeflow/internal/core"
)

// EventMessage is the JSON body published for each ledger or session event.
type EventMessage struct {
	ID            string            `json:"id"`
	Kind          string            `json:"kind"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Transaction   *core.Transaction `json:"transaction,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewEventMessage wraps e with a fresh message id. A zero OccurredAt is
// replaced by the current time.
func NewEventMessage(e core.Event) *EventMessage {
	ts := e.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &EventMessage{
		ID:            uuid.NewString(),
		Kind:          string(e.Kind),
		TransactionID: string(e.TransactionID),
		Transaction:   e.Transaction,
		Reason:        e.Reason,
		Timestamp:     ts.UTC(),
	}
}

// RoutingKey is the topic key for the message, e.g. "transaction.created".
func (m *EventMessage) RoutingKey() string {
	return m.Kind
}

func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
