package connection

import "encoding/json"

// Incoming message types.
const (
	MsgTypeConnection    = "connection"
	MsgTypeShipPositions = "ship-positions"
	MsgTypeAttack        = "attack"
	MsgTypeBonus         = "bonus"
)

// Outgoing message types.
const (
	MsgTypeConfiguration  = "configuration"
	MsgTypeAttackResult   = "attack-result"
	MsgTypeBonusResult    = "bonus-result"
	MsgTypeHeartbeat      = "heartbeat"
	MsgTypePleaseWait     = "please-wait"
	MsgTypeBadAttack      = "bad-attack"
	MsgTypeBadPayload     = "invalid-payload"
	MsgTypeBadMessageType = "bad-message-type"
	MsgTypeServerError    = "server-error"
)

// IncomingMessage is the envelope every client frame must carry.
type IncomingMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// OutgoingMessage is the envelope for every server frame. Sequence is
// a strictly increasing per-connection counter that lets clients
// detect gaps or duplicates.
type OutgoingMessage struct {
	Type     string `json:"type"`
	Data     any    `json:"data"`
	Sequence uint64 `json:"sequence"`
}

// Response is what a message handler produces; the session attaches
// the sequence number when writing it out.
type Response struct {
	Type string
	Data any
}

func NewResponse(msgType string, data any) Response {
	return Response{Type: msgType, Data: data}
}

// InfoPayload carries a human readable reason on rejection responses.
type InfoPayload struct {
	Info string `json:"info"`
}

func NewInfoResponse(msgType, info string) Response {
	return Response{Type: msgType, Data: InfoPayload{Info: info}}
}
