package domain

// ChatMessage is an immutable chat line. Sequence is assigned by the relay on
// receipt, monotonic per room with no gaps, and defines display order.
type ChatMessage struct {
	RoomID   string `json:"room_id"`
	Sender   string `json:"sender"`
	Text     string `json:"text"`
	Sequence uint64 `json:"sequence"`
}
