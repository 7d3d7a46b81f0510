package domain

import "errors"

var (
	// ErrDuplicateRoom is returned when a start request reuses an active room ID.
	ErrDuplicateRoom = errors.New("room id already active")

	// ErrRoomNotFound is returned when the room ID has no registry entry.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomClosed is returned when operating on a room that has ended.
	ErrRoomClosed = errors.New("room is closed")

	// ErrUnauthorized is returned when a control operation (pause, resume, end)
	// comes from a participant that is not the room's broadcaster.
	ErrUnauthorized = errors.New("only the broadcaster may perform this action")

	// ErrStaleExchange is returned when a signaling payload addresses an
	// exchange or participant that is no longer present. Callers drop it
	// silently; the sender cannot act on it.
	ErrStaleExchange = errors.New("negotiation exchange no longer present")

	// ErrInvalidParams is returned when start parameters fail validation.
	ErrInvalidParams = errors.New("invalid room parameters")
)
