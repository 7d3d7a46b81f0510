package presence

import (
	"sync"

	"github.com/viewvista/stream-service/internal/domain"
)

// Tracker holds the per-room set of connected participants. It is a pure
// state holder: join and leave return the recomputed viewer count so the
// lifecycle layer can fan it out, but the tracker itself never pushes
// updates.
type Tracker struct {
	mu    sync.RWMutex
	rooms map[string]map[string]domain.Participant // roomID -> participantID
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{rooms: make(map[string]map[string]domain.Participant)}
}

// Join adds the participant to its room and returns the new viewer count.
// Rejoining with the same ID replaces the previous record.
func (t *Tracker) Join(p domain.Participant) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[p.RoomID]
	if !ok {
		room = make(map[string]domain.Participant)
		t.rooms[p.RoomID] = room
	}
	room[p.ID] = p

	return viewerCount(room)
}

// Leave removes a participant and returns the new viewer count.
func (t *Tracker) Leave(roomID, participantID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[roomID]
	if !ok {
		return 0
	}
	delete(room, participantID)
	if len(room) == 0 {
		delete(t.rooms, roomID)
		return 0
	}

	return viewerCount(room)
}

// Get returns a participant record by ID.
func (t *Tracker) Get(roomID, participantID string) (domain.Participant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.rooms[roomID][participantID]
	return p, ok
}

// List returns all participants of a room.
func (t *Tracker) List(roomID string) []domain.Participant {
	t.mu.RLock()
	defer t.mu.RUnlock()

	room := t.rooms[roomID]
	out := make([]domain.Participant, 0, len(room))
	for _, p := range room {
		out = append(out, p)
	}
	return out
}

// ViewerCount returns the number of participants with role viewer.
func (t *Tracker) ViewerCount(roomID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return viewerCount(t.rooms[roomID])
}

// Clear removes every participant of a room and returns the evicted set, for
// the final stream_ended fan-out.
func (t *Tracker) Clear(roomID string) []domain.Participant {
	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.rooms[roomID]
	out := make([]domain.Participant, 0, len(room))
	for _, p := range room {
		out = append(out, p)
	}
	delete(t.rooms, roomID)
	return out
}

func viewerCount(room map[string]domain.Participant) int {
	n := 0
	for _, p := range room {
		if p.Role == domain.RoleViewer {
			n++
		}
	}
	return n
}
