package domain

import "time"

// Role distinguishes the one broadcaster of a room from its viewers.
type Role string

const (
	RoleBroadcaster Role = "broadcaster"
	RoleViewer      Role = "viewer"
)

// Participant is a plain identity record held by the presence tracker.
// ID is the peer identifier the media layer addresses signaling payloads to;
// ConnID is the server-side connection handle messages are delivered through.
type Participant struct {
	ID          string    `json:"id"`
	ConnID      string    `json:"-"`
	RoomID      string    `json:"room_id"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}
