package chat

import (
	"strings"
	"sync"

	"github.com/viewvista/stream-service/internal/domain"
)

const maxTextLen = 4000

// Relay assigns per-room sequence numbers to chat messages and retains them
// for the lifetime of the room. Sequences start at 0 and are strictly
// increasing with no gaps; messages are never deleted or reordered. There is
// no history replay for late joiners, so retention exists only for the
// room's live window.
type Relay struct {
	mu    sync.Mutex
	rooms map[string]*roomLog
}

type roomLog struct {
	next     uint64
	messages []domain.ChatMessage
}

// New creates an empty relay.
func New() *Relay {
	return &Relay{rooms: make(map[string]*roomLog)}
}

// Open starts accepting messages for a room. Opening an already open room is
// a no-op.
func (r *Relay) Open(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = &roomLog{}
	}
}

// Post stores a message with the next sequence number and returns it for
// fan-out. Posting to a room that was never opened or already closed fails
// with ErrRoomClosed and is not retried.
func (r *Relay) Post(roomID, sender, text string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxTextLen {
		return domain.ChatMessage{}, domain.ErrInvalidParams
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	log, ok := r.rooms[roomID]
	if !ok {
		return domain.ChatMessage{}, domain.ErrRoomClosed
	}

	msg := domain.ChatMessage{
		RoomID:   roomID,
		Sender:   sender,
		Text:     text,
		Sequence: log.next,
	}
	log.next++
	log.messages = append(log.messages, msg)

	return msg, nil
}

// Len reports how many messages a room has accepted.
func (r *Relay) Len(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	log, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	return len(log.messages)
}

// Close discards a room's log. Further posts fail with ErrRoomClosed.
func (r *Relay) Close(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
}
