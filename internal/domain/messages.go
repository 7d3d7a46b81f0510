package domain

import "encoding/json"

// WebSocket message types from client.
const (
	MsgTypeStartRoom  = "start_room"
	MsgTypeJoinRoom   = "join_room"
	MsgTypeSignal     = "signal"
	MsgTypeChat       = "chat_message"
	MsgTypePauseRoom  = "pause_room"
	MsgTypeResumeRoom = "resume_room"
	MsgTypeEndRoom    = "end_room"
	MsgTypeListPublic = "list_public"
	MsgTypePing       = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeRoomStarted       = "room_started"
	MsgTypeJoinOK            = "join_ok"
	MsgTypeParticipantJoined = "participant_joined"
	MsgTypeViewerCount       = "viewer_count"
	MsgTypePricePerMinute    = "price_per_minute"
	MsgTypeRemainingTime     = "remaining_time"
	MsgTypeStreamPaused      = "stream_paused"
	MsgTypeStreamResumed     = "stream_resumed"
	MsgTypeStreamEnded       = "stream_ended"
	MsgTypePublicStreams     = "public_streams"
	MsgTypeError             = "error"
	MsgTypePong              = "pong"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

// StartRoomMessage is sent by a broadcaster to open a room.
type StartRoomMessage struct {
	Type            string     `json:"type"`
	RoomID          string     `json:"room_id"`
	ParticipantID   string     `json:"participant_id,omitempty"`
	BroadcasterName string     `json:"broadcaster_name"`
	Visibility      Visibility `json:"visibility"`
	DurationMinutes int        `json:"duration_minutes"`
	PricePerMinute  float64    `json:"price_per_minute"`
}

// JoinRoomMessage is sent by a viewer to join a room.
type JoinRoomMessage struct {
	Type          string `json:"type"`
	RoomID        string `json:"room_id"`
	ParticipantID string `json:"participant_id,omitempty"`
	DisplayName   string `json:"display_name"`
}

// SignalMessage carries an opaque connection-setup payload between two
// participants of a room. The server relays the payload verbatim; From is
// filled in on delivery so the receiver knows the origin.
type SignalMessage struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"room_id"`
	To      string          `json:"to,omitempty"`
	From    string          `json:"from,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// ChatSendMessage is sent by any participant to post a chat line.
type ChatSendMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Text   string `json:"text"`
}

// RoomControlMessage covers pause_room, resume_room and end_room.
type RoomControlMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// Server -> Client messages

// RoomStartedMessage confirms room creation to the broadcaster.
type RoomStartedMessage struct {
	Type string `json:"type"`
	Room Room   `json:"room"`
}

// JoinOKMessage confirms a successful join to the requesting viewer.
type JoinOKMessage struct {
	Type             string  `json:"type"`
	RoomID           string  `json:"room_id"`
	Broadcaster      string  `json:"broadcaster"`
	PricePerMinute   float64 `json:"price_per_minute"`
	RemainingSeconds int64   `json:"remaining_seconds"`
	ViewerCount      int     `json:"viewer_count"`
}

// ParticipantJoinedMessage tells the broadcaster a viewer arrived.
type ParticipantJoinedMessage struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
}

// ChatBroadcastMessage fans a stored chat line out to the room.
type ChatBroadcastMessage struct {
	Type     string `json:"type"`
	Sender   string `json:"sender"`
	Text     string `json:"text"`
	Sequence uint64 `json:"sequence"`
}

// ViewerCountMessage is sent to the room when the viewer count changes.
type ViewerCountMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// PriceMessage pushes the room's price per minute to a participant.
type PriceMessage struct {
	Type           string  `json:"type"`
	PricePerMinute float64 `json:"price_per_minute"`
}

// RemainingTimeMessage is sent on every timer tick to all room participants.
type RemainingTimeMessage struct {
	Type    string `json:"type"`
	Seconds int64  `json:"seconds"`
}

// StreamStateMessage covers stream_paused, stream_resumed and stream_ended.
type StreamStateMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// PublicStreamsMessage answers a list_public query.
type PublicStreamsMessage struct {
	Type    string         `json:"type"`
	Streams []ListingEntry `json:"streams"`
}

// ErrorMessage is sent when an operation is rejected.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeDuplicateRoom = "DUPLICATE_ROOM"
	ErrCodeRoomClosed    = "ROOM_CLOSED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// NewErrorMessage creates a new error message.
func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
