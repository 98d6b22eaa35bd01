package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeEvents  = "EVENTS"
	TypeError   = "ERROR"

	// Commands (client -> server).
	TypeMove       = "MOVE"
	TypeMoveTo     = "MOVE_TO"
	TypeOpenCache  = "OPEN_CACHE"
	TypeCloseCache = "CLOSE_CACHE"
	TypeInteract   = "INTERACT"
	TypeReset      = "RESET"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

func IsCommand(t string) bool {
	switch t {
	case TypeMove, TypeMoveTo, TypeOpenCache, TypeCloseCache, TypeInteract, TypeReset:
		return true
	default:
		return false
	}
}
