package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

const (
	ActionState = "game:state"
	ActionStart = "game:start"
	ActionReset = "game:reset"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Game  *entity.Snapshot `json:"game,omitempty"`
	Error string           `json:"error,omitempty"`
}

func newMessage(action string, payload Payload) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{Action: action, Payload: raw}, nil
}
