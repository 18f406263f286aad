package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/t3ttt/internal/render"
)

const (
	actionConnect = "connect"
	actionGet     = "board:get"
	actionClaim   = "board:claim"
	actionClear   = "board:clear"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ResponsePayload struct {
	SessionID string            `json:"session_id,omitempty"`
	Board     *render.BoardView `json:"board,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type claimPayload struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}
