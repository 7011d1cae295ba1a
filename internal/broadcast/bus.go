// Package broadcast propagates full-state snapshots between contexts that
// share one storage location.
//
// Two channels exist, matching the two ways another context can learn about
// a save: a live message bus (optional, low latency) and the storage signal
// value (always present, observed by watch or poll). Either way the receiver
// applies last-writer-wins by logical timestamp; there is no merging.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/koban-io/koban/internal/model"
)

// stateMessageType tags state snapshots on the wire.
const stateMessageType = "state"

// Message is the wire envelope for a broadcast state.
type Message struct {
	Type  string       `json:"type"`
	State *model.State `json:"state"`
}

// Encode serializes a state snapshot for the bus.
func Encode(state *model.State) ([]byte, error) {
	data, err := json.Marshal(Message{Type: stateMessageType, State: state})
	if err != nil {
		return nil, fmt.Errorf("failed to encode broadcast message: %w", err)
	}
	return data, nil
}

// Decode deserializes a bus message. Messages of other types decode to nil
// without error.
func Decode(data []byte) (*model.State, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode broadcast message: %w", err)
	}
	if msg.Type != stateMessageType {
		return nil, nil
	}
	return msg.State, nil
}

// Bus is a live broadcast channel between contexts. It is optional: the
// engine runs fine without one, falling back to storage signals alone.
type Bus interface {
	// Publish sends a state snapshot to every other live context.
	Publish(ctx context.Context, state *model.State) error

	// Subscribe delivers incoming snapshots to handler until ctx is done.
	Subscribe(ctx context.Context, handler func(*model.State)) error

	Close() error
}
