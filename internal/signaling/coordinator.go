package signaling

import (
	"sync"

	"github.com/viewvista/stream-service/internal/domain"
)

// Sender delivers a message to a connection without blocking. Delivery to a
// connection that is already gone is a no-op, not an error.
type Sender interface {
	Send(connID string, message interface{})
}

// Coordinator relays connection-setup payloads between a room's broadcaster
// and each of its viewers without interpreting their contents. It only tracks
// how far each handshake has progressed: the first broadcaster-to-viewer
// relay is the offer, the first viewer-to-broadcaster relay is the answer,
// and an answered exchange is established and discarded. Payloads addressed
// to a discarded or unknown exchange are dropped.
type Coordinator struct {
	mu        sync.Mutex
	exchanges map[string]map[string]*domain.Exchange // roomID -> viewerID
	sender    Sender
}

// New creates a coordinator delivering through sender.
func New(sender Sender) *Coordinator {
	return &Coordinator{
		exchanges: make(map[string]map[string]*domain.Exchange),
		sender:    sender,
	}
}

// Open starts a handshake for a viewer that joined the room. If the room has
// no reachable broadcaster the exchange is marked failed and ErrRoomClosed is
// returned so the caller can reject the join; the coordinator never retries.
func (c *Coordinator) Open(roomID string, viewer, broadcaster domain.Participant) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ex := &domain.Exchange{
		RoomID:          roomID,
		ViewerID:        viewer.ID,
		ViewerConnID:    viewer.ConnID,
		BroadcasterID:   broadcaster.ID,
		BroadcastConnID: broadcaster.ConnID,
		Phase:           domain.PhaseOfferPending,
	}

	if broadcaster.ConnID == "" {
		ex.Phase = domain.PhaseFailed
		return domain.ErrRoomClosed
	}

	room, ok := c.exchanges[roomID]
	if !ok {
		room = make(map[string]*domain.Exchange)
		c.exchanges[roomID] = room
	}
	room[viewer.ID] = ex

	return nil
}

// Relay forwards an opaque payload from one side of an exchange to the
// other. The payload is delivered verbatim; only the from field is stamped so
// the receiver knows the origin. A payload that does not match a live
// exchange fails with ErrStaleExchange and must be dropped silently.
func (c *Coordinator) Relay(roomID string, from domain.Participant, toID string, msg domain.SignalMessage) error {
	c.mu.Lock()

	room := c.exchanges[roomID]
	if room == nil {
		c.mu.Unlock()
		return domain.ErrStaleExchange
	}

	var ex *domain.Exchange
	var fromBroadcaster bool
	if from.Role == domain.RoleBroadcaster {
		ex = room[toID]
		fromBroadcaster = true
	} else {
		ex = room[from.ID]
	}

	if ex == nil || ex.Phase == domain.PhaseFailed {
		c.mu.Unlock()
		return domain.ErrStaleExchange
	}
	if fromBroadcaster && ex.BroadcasterID != from.ID {
		c.mu.Unlock()
		return domain.ErrStaleExchange
	}
	if !fromBroadcaster && toID != ex.BroadcasterID {
		c.mu.Unlock()
		return domain.ErrStaleExchange
	}

	target := ex.ViewerConnID
	if !fromBroadcaster {
		target = ex.BroadcastConnID
	}

	switch {
	case fromBroadcaster && ex.Phase == domain.PhaseOfferPending:
		ex.Phase = domain.PhaseAnswerPending
	case !fromBroadcaster && ex.Phase == domain.PhaseAnswerPending:
		ex.Phase = domain.PhaseEstablished
		delete(room, ex.ViewerID)
		if len(room) == 0 {
			delete(c.exchanges, roomID)
		}
	}
	c.mu.Unlock()

	out := domain.SignalMessage{
		Type:    domain.MsgTypeSignal,
		RoomID:  roomID,
		From:    from.ID,
		Payload: msg.Payload,
	}
	c.sender.Send(target, out)

	return nil
}

// Phase reports the current handshake phase for a viewer, if any.
func (c *Coordinator) Phase(roomID, viewerID string) (domain.ExchangePhase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ex := c.exchanges[roomID][viewerID]
	if ex == nil {
		return "", false
	}
	return ex.Phase, true
}

// Drop discards a viewer's pending exchange, typically on disconnect.
// Further payloads for it become stale.
func (c *Coordinator) Drop(roomID, viewerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room := c.exchanges[roomID]
	if room == nil {
		return
	}
	delete(room, viewerID)
	if len(room) == 0 {
		delete(c.exchanges, roomID)
	}
}

// CloseRoom discards every pending exchange of a room on termination.
func (c *Coordinator) CloseRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.exchanges, roomID)
}
