package domain

import "time"

// Visibility controls whether a room appears in public discovery.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility value.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// RoomState represents the lifecycle state of a room.
//
// Configuring exists only on the broadcaster's side before a valid start
// request; the server never stores a room in that state. Live and Paused are
// both active for join/chat/presence purposes; only the broadcaster's media
// flag differs. Ended is terminal.
type RoomState string

const (
	RoomStateLive   RoomState = "live"
	RoomStatePaused RoomState = "paused"
	RoomStateEnded  RoomState = "ended"
)

// Active reports whether the room accepts joins, chat and signaling.
func (s RoomState) Active() bool {
	return s == RoomStateLive || s == RoomStatePaused
}

// Room is a single broadcaster's time-boxed, priced, visibility-scoped
// session. Visibility, price and duration are immutable after creation.
type Room struct {
	ID              string     `json:"id"`
	Broadcaster     string     `json:"broadcaster"`
	Visibility      Visibility `json:"visibility"`
	PricePerMinute  float64    `json:"price_per_minute"`
	DurationMinutes int        `json:"duration_minutes"`
	StartedAt       time.Time  `json:"started_at"`
	EndsAt          time.Time  `json:"ends_at"`
	State           RoomState  `json:"state"`
}

// RemainingSeconds derives the remaining time from the stored deadline.
// It is never cached or decremented, so repeated reads stay correct across
// delayed ticks. Partial seconds round up: the count reaches 0 only once the
// deadline has actually passed.
func (r *Room) RemainingSeconds(now time.Time) int64 {
	left := r.EndsAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int64((left + time.Second - 1) / time.Second)
}

// ListingEntry is the public discovery view of a joinable room.
type ListingEntry struct {
	RoomID           string  `json:"room_id"`
	Broadcaster      string  `json:"broadcaster"`
	PricePerMinute   float64 `json:"price_per_minute"`
	DurationMinutes  int     `json:"duration_minutes"`
	RemainingSeconds int64   `json:"remaining_seconds"`
}
