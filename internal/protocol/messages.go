// Package protocol defines the websocket wire protocol between game clients
// and the server. Every frame is a JSON envelope carrying a message type and
// a type-specific payload.
package protocol

import (
	"encoding/json"

	"github.com/plaza-world/plaza/internal/model"
)

// MessageType defines the type of a websocket message
type MessageType string

const (
	// Client -> Server
	MsgConnect MessageType = "connect"
	MsgMove    MessageType = "move"
	MsgChat    MessageType = "chat"
	MsgDraw    MessageType = "draw"
	MsgEmote   MessageType = "emote"

	// Server -> Client
	MsgFullState   MessageType = "full_state"
	MsgUpdate      MessageType = "update"
	MsgError       MessageType = "error"
	MsgDrawPending MessageType = "draw_pending"
)

// Message is the envelope for all websocket messages
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ConnectPayload is the first message a client must send. Password is only
// required when the requested name belongs to a registered account.
type ConnectPayload struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// MovePayload requests a move to an absolute world position
type MovePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ChatPayload carries a chat message
type ChatPayload struct {
	Text string `json:"text"`
}

// DrawPayload submits drawing content for moderation review.
// Data is base64-encoded on the wire (encoding/json []byte behavior).
type DrawPayload struct {
	Data []byte `json:"data"`
}

// EmotePayload sets the player's visible emote; empty clears it
type EmotePayload struct {
	Emote string `json:"emote"`
}

// FullStatePayload is sent exactly once, immediately after a successful
// connect. You is the receiver's own identity; Players holds every currently
// connected player including the receiver.
type FullStatePayload struct {
	You     model.ClientID `json:"you"`
	Players []model.Player `json:"players"`
}

// UpdateKind distinguishes the delta carried by an update message
type UpdateKind string

const (
	UpdatePlayerJoined UpdateKind = "player_joined"
	UpdatePlayerLeft   UpdateKind = "player_left"
	UpdatePlayerMoved  UpdateKind = "player_moved"
	UpdateChat         UpdateKind = "chat"
	UpdatePlayerEmote  UpdateKind = "player_emote"
	UpdateDrawing      UpdateKind = "drawing"
)

// UpdatePayload is one committed state change. Exactly one update is
// broadcast per commit; which fields are set depends on Kind.
type UpdatePayload struct {
	Kind UpdateKind `json:"kind"`

	// ID names the affected player for every kind except player_joined,
	// where the full player is carried instead.
	ID     model.ClientID `json:"id,omitempty"`
	Player *model.Player  `json:"player,omitempty"`

	Position  *model.Position `json:"position,omitempty"`
	Text      string          `json:"text,omitempty"`
	Emote     string          `json:"emote,omitempty"`
	DrawingID model.DrawingID `json:"drawing_id,omitempty"`
	Data      []byte          `json:"data,omitempty"`
}

// ErrorCode classifies an error message
type ErrorCode string

const (
	ErrCodeProtocol        ErrorCode = "protocol_error"
	ErrCodeNotConnected    ErrorCode = "not_connected"
	ErrCodeAlreadyConnect  ErrorCode = "already_connected"
	ErrCodeBanned          ErrorCode = "banned"
	ErrCodeBadCredentials  ErrorCode = "invalid_credentials"
	ErrCodeOutOfBounds     ErrorCode = "out_of_bounds"
	ErrCodeMessageRejected ErrorCode = "message_rejected"
	ErrCodeMessageTooLong  ErrorCode = "message_too_long"
	ErrCodeDrawingInvalid  ErrorCode = "drawing_invalid"
	ErrCodeInternal        ErrorCode = "internal_error"
)

// ErrorPayload is sent only to the offending connection, never broadcast
type ErrorPayload struct {
	Code   ErrorCode `json:"code"`
	Reason string    `json:"reason"`
}

// DrawPendingPayload acknowledges a drawing submission to the submitter.
// The drawing is not visible to anyone else until approved.
type DrawPendingPayload struct {
	DrawingID model.DrawingID `json:"drawing_id"`
}

// Encode wraps a payload in an envelope and marshals it
func Encode(msgType MessageType, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}

	return json.Marshal(Message{Type: msgType, Payload: raw})
}

// Decode unmarshals an envelope. The payload stays raw; callers unmarshal it
// into the type matching Message.Type.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
