package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/viewvista/stream-service/internal/domain"
)

// Registry is the in-memory table of active rooms. It owns the Room records;
// all reads return value snapshots so listing never races with lifecycle
// mutation. Entries are created on start_room and removed on any termination
// path, at which point the ID becomes reusable.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{rooms: make(map[string]*domain.Room)}
}

// Create registers a new Live room. It fails with ErrDuplicateRoom while the
// ID is still active.
func (r *Registry) Create(id, broadcaster string, visibility domain.Visibility, durationMinutes int, pricePerMinute float64, now time.Time) (domain.Room, error) {
	if id == "" || broadcaster == "" || durationMinutes <= 0 || pricePerMinute <= 0 || !visibility.Valid() {
		return domain.Room{}, domain.ErrInvalidParams
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[id]; exists {
		return domain.Room{}, domain.ErrDuplicateRoom
	}

	room := &domain.Room{
		ID:              id,
		Broadcaster:     broadcaster,
		Visibility:      visibility,
		PricePerMinute:  pricePerMinute,
		DurationMinutes: durationMinutes,
		StartedAt:       now,
		EndsAt:          now.Add(time.Duration(durationMinutes) * time.Minute),
		State:           domain.RoomStateLive,
	}
	r.rooms[id] = room

	return *room, nil
}

// Get returns a snapshot of the room.
func (r *Registry) Get(id string) (domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return *room, nil
}

// SetState transitions the room's lifecycle state.
func (r *Registry) SetState(id string, state domain.RoomState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.State = state
	return nil
}

// Remove frees the room ID. Removing an absent ID is a no-op so the explicit
// end and timer expiry paths can race safely.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
}

// ListVisible returns snapshots of active rooms with the given visibility,
// ordered by start time for a stable discovery view.
func (r *Registry) ListVisible(visibility domain.Visibility) []domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if room.Visibility == visibility && room.State.Active() {
			out = append(out, *room)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}
