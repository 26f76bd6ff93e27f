// ABOUTME: Voice relay control message definitions
// ABOUTME: JSON envelope and the server greeting
package protocol

import (
	"encoding/json"
	"fmt"
)

// Protocol constants
const (
	Version = 1

	TypeServerHello = "server/hello"
)

// Message is the top-level wrapper for all control messages
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerHello is sent by the relay right after a connection is accepted
type ServerHello struct {
	ConnectionID string `json:"connection_id"`
	Name         string `json:"name"`
	Version      int    `json:"version"`
}

// NewMessage marshals payload into an envelope of the given type
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	return Message{Type: msgType, Payload: data}, nil
}

// Decode unmarshals the envelope payload into v
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to parse %s payload: %w", m.Type, err)
	}
	return nil
}
