package amqp

import (
	"encoding/json"
	"time"
)

// DetectRequestMessage asks the worker to re-run recurring-payment
// detection for one user. It carries only the user ID; the worker reads
// the debit history from storage itself.
type DetectRequestMessage struct {
	UserID    int64     `json:"user_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDetectRequestMessage creates a detect request for the given user.
func NewDetectRequestMessage(userID int64, reason string) *DetectRequestMessage {
	return &DetectRequestMessage{
		UserID:    userID,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DetectRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DetectRequestMessageFromJSON creates a message from JSON bytes
func DetectRequestMessageFromJSON(data []byte) (*DetectRequestMessage, error) {
	var msg DetectRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
