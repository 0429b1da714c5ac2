package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is a booking status notification queued for delivery. One
// message is produced per committed booking and per admin decision.
type Message struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	EventName string    `json:"event_name"`
	SlotLabel string    `json:"slot_label"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage builds a delivery message for a booking status change.
func NewMessage(email, eventName, slotLabel, status string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Email:     email,
		EventName: eventName,
		SlotLabel: slotLabel,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
}

// ToJSON serializes the message for the wire.
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON deserializes a wire message.
func FromJSON(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// PartitionKey routes all messages for one recipient to one partition so
// their relative order is preserved.
func (m *Message) PartitionKey() string {
	return m.Email
}
