package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/viewvista/stream-service/internal/chat"
	"github.com/viewvista/stream-service/internal/domain"
	"github.com/viewvista/stream-service/internal/presence"
	"github.com/viewvista/stream-service/internal/registry"
	"github.com/viewvista/stream-service/internal/signaling"
	"github.com/viewvista/stream-service/internal/timer"
	pkglog "github.com/viewvista/stream-service/pkg/log"
)

// Sender delivers a message to a connection without blocking. Delivery to a
// connection that has already gone away is a no-op.
type Sender interface {
	Send(connID string, message interface{})
}

// Manager is the session lifecycle state machine. Every inbound event and
// every timer tick for a room funnels through that room's runtime lock, so
// concurrent joins, chat, signaling and expiry serialize per room while
// different rooms proceed fully in parallel.
type Manager struct {
	registry *registry.Registry
	timers   *timer.Controller
	presence *presence.Tracker
	chat     *chat.Relay
	signals  *signaling.Coordinator
	sender   Sender
	now      func() time.Time
	log      zerolog.Logger

	// mu guards the two maps below only and is always taken after a room
	// lock, never around one.
	mu     sync.RWMutex
	rooms  map[string]*roomState
	byConn map[string]connInfo
}

// roomState is the runtime state of one active room.
type roomState struct {
	mu           sync.Mutex
	room         domain.Room // immutable creation-time snapshot
	broadcaster  domain.Participant
	mediaEnabled bool
	ended        bool
}

// connInfo ties a connection back to its room membership.
type connInfo struct {
	roomID        string
	participantID string
}

// NewManager wires the lifecycle machine to its collaborators.
func NewManager(reg *registry.Registry, timers *timer.Controller, tracker *presence.Tracker, relay *chat.Relay, signals *signaling.Coordinator, sender Sender) *Manager {
	return &Manager{
		registry: reg,
		timers:   timers,
		presence: tracker,
		chat:     relay,
		signals:  signals,
		sender:   sender,
		now:      time.Now,
		log:      pkglog.L(),
		rooms:    make(map[string]*roomState),
		byConn:   make(map[string]connInfo),
	}
}

// StartRoom creates a room, starts its countdown and registers the
// broadcaster. Errors are reported to the requester; an active duplicate ID
// leaves the existing room untouched.
func (m *Manager) StartRoom(connID string, msg domain.StartRoomMessage) error {
	if _, joined := m.connInfo(connID); joined {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeBadRequest, "already attached to a room"))
		return domain.ErrInvalidParams
	}

	pid := msg.ParticipantID
	if pid == "" {
		pid = connID
	}

	room, err := m.registry.Create(msg.RoomID, msg.BroadcasterName, msg.Visibility, msg.DurationMinutes, msg.PricePerMinute, m.now())
	if err != nil {
		switch err {
		case domain.ErrDuplicateRoom:
			m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeDuplicateRoom, "room id already in use"))
		default:
			m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid room parameters"))
		}
		return err
	}

	broadcaster := domain.Participant{
		ID:          pid,
		ConnID:      connID,
		RoomID:      room.ID,
		Role:        domain.RoleBroadcaster,
		DisplayName: msg.BroadcasterName,
		JoinedAt:    m.now(),
	}

	rs := &roomState{
		room:         room,
		broadcaster:  broadcaster,
		mediaEnabled: true,
	}

	m.mu.Lock()
	m.rooms[room.ID] = rs
	m.byConn[connID] = connInfo{roomID: room.ID, participantID: pid}
	m.mu.Unlock()

	m.presence.Join(broadcaster)
	m.chat.Open(room.ID)

	duration := time.Duration(room.DurationMinutes) * time.Minute
	m.timers.Start(room.ID, duration,
		func(remaining int64) { m.handleTick(room.ID, remaining) },
		func() { m.handleExpiry(room.ID) },
	)

	m.sender.Send(connID, &domain.RoomStartedMessage{Type: domain.MsgTypeRoomStarted, Room: room})
	m.sender.Send(connID, &domain.ViewerCountMessage{Type: domain.MsgTypeViewerCount, Count: 0})

	m.log.Info().
		Str(pkglog.FieldRoomID, room.ID).
		Str("visibility", string(room.Visibility)).
		Int("duration_minutes", room.DurationMinutes).
		Msg("room started")
	return nil
}

// JoinRoom admits a viewer into a Live or Paused room and opens its
// negotiation exchange with the broadcaster. A join on an absent or ended
// room is rejected with ROOM_CLOSED and never retried by the server.
func (m *Manager) JoinRoom(connID string, msg domain.JoinRoomMessage) error {
	rs, ok := m.roomState(msg.RoomID)
	if !ok {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeRoomClosed, "room does not exist or has ended"))
		return domain.ErrRoomClosed
	}

	pid := msg.ParticipantID
	if pid == "" {
		pid = connID
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ended {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeRoomClosed, "room does not exist or has ended"))
		return domain.ErrRoomClosed
	}

	viewer := domain.Participant{
		ID:          pid,
		ConnID:      connID,
		RoomID:      msg.RoomID,
		Role:        domain.RoleViewer,
		DisplayName: msg.DisplayName,
		JoinedAt:    m.now(),
	}

	prev, rejoining := m.presence.Get(msg.RoomID, pid)

	count := m.presence.Join(viewer)

	if err := m.signals.Open(msg.RoomID, viewer, rs.broadcaster); err != nil {
		m.presence.Leave(msg.RoomID, pid)
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeRoomClosed, "room is unavailable"))
		return err
	}

	m.mu.Lock()
	if rejoining && prev.ConnID != connID {
		// Same participant rejoined from a new connection; the superseded
		// connection no longer speaks for it.
		delete(m.byConn, prev.ConnID)
	}
	m.byConn[connID] = connInfo{roomID: msg.RoomID, participantID: pid}
	m.mu.Unlock()

	remaining := rs.room.RemainingSeconds(m.now())
	m.sender.Send(connID, &domain.JoinOKMessage{
		Type:             domain.MsgTypeJoinOK,
		RoomID:           rs.room.ID,
		Broadcaster:      rs.room.Broadcaster,
		PricePerMinute:   rs.room.PricePerMinute,
		RemainingSeconds: remaining,
		ViewerCount:      count,
	})
	m.sender.Send(connID, &domain.PriceMessage{Type: domain.MsgTypePricePerMinute, PricePerMinute: rs.room.PricePerMinute})
	m.sender.Send(connID, &domain.RemainingTimeMessage{Type: domain.MsgTypeRemainingTime, Seconds: remaining})

	m.sender.Send(rs.broadcaster.ConnID, &domain.ParticipantJoinedMessage{
		Type:          domain.MsgTypeParticipantJoined,
		ParticipantID: pid,
		DisplayName:   msg.DisplayName,
	})

	m.broadcast(msg.RoomID, &domain.ViewerCountMessage{Type: domain.MsgTypeViewerCount, Count: count})

	m.log.Info().
		Str(pkglog.FieldRoomID, msg.RoomID).
		Str(pkglog.FieldParticipantID, pid).
		Int("viewer_count", count).
		Msg("viewer joined")
	return nil
}

// Signal relays an opaque negotiation payload to the addressed peer. Stale
// payloads are dropped silently; the sender cannot act on them.
func (m *Manager) Signal(connID string, msg domain.SignalMessage) error {
	info, ok := m.connInfo(connID)
	if !ok || info.roomID != msg.RoomID {
		return nil // stale: connection is not in that room anymore
	}

	rs, ok := m.roomState(msg.RoomID)
	if !ok {
		return nil
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ended {
		return nil
	}

	from, ok := m.presence.Get(msg.RoomID, info.participantID)
	if !ok {
		return nil
	}

	if err := m.signals.Relay(msg.RoomID, from, msg.To, msg); err != nil {
		m.log.Debug().
			Str(pkglog.FieldRoomID, msg.RoomID).
			Str(pkglog.FieldParticipantID, from.ID).
			Msg("dropped stale signaling payload")
	}
	return nil
}

// Chat stores a message with the next room sequence and fans it out to every
// participant in sequence order.
func (m *Manager) Chat(connID string, msg domain.ChatSendMessage) error {
	info, ok := m.connInfo(connID)
	if !ok || info.roomID != msg.RoomID {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeRoomClosed, "not attached to that room"))
		return domain.ErrRoomClosed
	}

	rs, ok := m.roomState(msg.RoomID)
	if !ok {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeRoomClosed, "room does not exist or has ended"))
		return domain.ErrRoomClosed
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ended {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeRoomClosed, "room does not exist or has ended"))
		return domain.ErrRoomClosed
	}

	sender, ok := m.presence.Get(msg.RoomID, info.participantID)
	if !ok {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeBadRequest, "not a participant of that room"))
		return domain.ErrInvalidParams
	}

	stored, err := m.chat.Post(msg.RoomID, sender.DisplayName, msg.Text)
	if err != nil {
		switch err {
		case domain.ErrRoomClosed:
			m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeRoomClosed, "room does not exist or has ended"))
		default:
			m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid chat message"))
		}
		return err
	}

	m.broadcast(msg.RoomID, &domain.ChatBroadcastMessage{
		Type:     domain.MsgTypeChat,
		Sender:   stored.Sender,
		Text:     stored.Text,
		Sequence: stored.Sequence,
	})
	return nil
}

// Pause suspends the broadcaster's outgoing media. The room stays joinable
// and the countdown keeps running.
func (m *Manager) Pause(connID, roomID string) error {
	return m.setMedia(connID, roomID, false)
}

// Resume re-enables the broadcaster's outgoing media.
func (m *Manager) Resume(connID, roomID string) error {
	return m.setMedia(connID, roomID, true)
}

func (m *Manager) setMedia(connID, roomID string, enabled bool) error {
	rs, ok := m.roomState(roomID)
	if !ok {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeRoomClosed, "room does not exist or has ended"))
		return domain.ErrRoomClosed
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ended {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeRoomClosed, "room does not exist or has ended"))
		return domain.ErrRoomClosed
	}
	if rs.broadcaster.ConnID != connID {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeForbidden, "only the broadcaster may pause or resume"))
		return domain.ErrUnauthorized
	}
	if rs.mediaEnabled == enabled {
		return nil
	}

	rs.mediaEnabled = enabled
	state := domain.RoomStatePaused
	event := domain.MsgTypeStreamPaused
	if enabled {
		state = domain.RoomStateLive
		event = domain.MsgTypeStreamResumed
	}
	if err := m.registry.SetState(roomID, state); err != nil {
		return err
	}

	m.broadcast(roomID, &domain.StreamStateMessage{Type: event, RoomID: roomID})
	return nil
}

// End terminates a room on the broadcaster's request.
func (m *Manager) End(connID, roomID string) error {
	rs, ok := m.roomState(roomID)
	if !ok {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeRoomClosed, "room does not exist or has ended"))
		return domain.ErrRoomClosed
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ended {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeRoomClosed, "room does not exist or has ended"))
		return domain.ErrRoomClosed
	}
	if rs.broadcaster.ConnID != connID {
		m.sender.Send(connID, domain.NewErrorMessage(domain.ErrCodeForbidden, "only the broadcaster may end the stream"))
		return domain.ErrUnauthorized
	}

	m.teardownLocked(rs, "explicit end")
	return nil
}

// Disconnect unwinds whatever the connection owned. A broadcaster disconnect
// ends the room exactly like an explicit end; a viewer disconnect updates the
// count and discards its pending exchange.
func (m *Manager) Disconnect(connID string) {
	info, ok := m.connInfo(connID)
	if !ok {
		return
	}

	rs, ok := m.roomState(info.roomID)
	if !ok {
		m.forgetConn(connID)
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ended {
		m.forgetConn(connID)
		return
	}

	if rs.broadcaster.ConnID == connID {
		m.teardownLocked(rs, "broadcaster disconnect")
		return
	}

	// A reaped connection only evicts the participant it still owns. After a
	// rejoin the presence record carries the newer connection, and this
	// disconnect owns nothing.
	if p, live := m.presence.Get(info.roomID, info.participantID); !live || p.ConnID != connID {
		m.forgetConn(connID)
		return
	}

	count := m.presence.Leave(info.roomID, info.participantID)
	m.signals.Drop(info.roomID, info.participantID)
	m.forgetConn(connID)

	m.broadcast(info.roomID, &domain.ViewerCountMessage{Type: domain.MsgTypeViewerCount, Count: count})

	m.log.Info().
		Str(pkglog.FieldRoomID, info.roomID).
		Str(pkglog.FieldParticipantID, info.participantID).
		Int("viewer_count", count).
		Msg("viewer left")
}

// ListPublic derives the discovery view from registry snapshots. Remaining
// time is recomputed from each room's deadline on every call.
func (m *Manager) ListPublic() []domain.ListingEntry {
	rooms := m.registry.ListVisible(domain.VisibilityPublic)
	now := m.now()

	entries := make([]domain.ListingEntry, 0, len(rooms))
	for _, r := range rooms {
		entries = append(entries, domain.ListingEntry{
			RoomID:           r.ID,
			Broadcaster:      r.Broadcaster,
			PricePerMinute:   r.PricePerMinute,
			DurationMinutes:  r.DurationMinutes,
			RemainingSeconds: r.RemainingSeconds(now),
		})
	}
	return entries
}

// handleTick fans the clamped remaining seconds out to the room. Ticks and
// external events share the room lock, so a tick never interleaves with a
// teardown in progress.
func (m *Manager) handleTick(roomID string, remaining int64) {
	rs, ok := m.roomState(roomID)
	if !ok {
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ended {
		return
	}
	m.broadcast(roomID, &domain.RemainingTimeMessage{Type: domain.MsgTypeRemainingTime, Seconds: remaining})
}

// handleExpiry terminates the room when the countdown reaches zero. Expiry
// and explicit end are the same transition; neither is an error.
func (m *Manager) handleExpiry(roomID string) {
	rs, ok := m.roomState(roomID)
	if !ok {
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ended {
		return
	}
	m.teardownLocked(rs, "timer expiry")
}

// teardownLocked unwinds everything the room owns, then notifies the former
// participants. State is gone before the first stream_ended leaves the
// process, so no chat or signaling for the room is processed after teardown
// begins. Caller holds rs.mu.
func (m *Manager) teardownLocked(rs *roomState, reason string) {
	rs.ended = true
	roomID := rs.room.ID

	m.timers.Stop(roomID)
	m.signals.CloseRoom(roomID)
	m.chat.Close(roomID)
	participants := m.presence.Clear(roomID)
	_ = m.registry.SetState(roomID, domain.RoomStateEnded)
	m.registry.Remove(roomID)

	m.mu.Lock()
	delete(m.rooms, roomID)
	for _, p := range participants {
		delete(m.byConn, p.ConnID)
	}
	m.mu.Unlock()

	ended := &domain.StreamStateMessage{Type: domain.MsgTypeStreamEnded, RoomID: roomID}
	for _, p := range participants {
		m.sender.Send(p.ConnID, ended)
	}

	m.log.Info().
		Str(pkglog.FieldRoomID, roomID).
		Str("reason", reason).
		Int("participants", len(participants)).
		Msg("room ended")
}

// broadcast sends a message to every current participant of a room.
func (m *Manager) broadcast(roomID string, message interface{}) {
	for _, p := range m.presence.List(roomID) {
		m.sender.Send(p.ConnID, message)
	}
}

func (m *Manager) roomState(roomID string) (*roomState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rs, ok := m.rooms[roomID]
	return rs, ok
}

func (m *Manager) connInfo(connID string) (connInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.byConn[connID]
	return info, ok
}

func (m *Manager) forgetConn(connID string) {
	m.mu.Lock()
	delete(m.byConn, connID)
	m.mu.Unlock()
}
