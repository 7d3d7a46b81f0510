package domain

// ExchangePhase tracks how far a connection-setup handshake has progressed.
type ExchangePhase string

const (
	PhaseOfferPending  ExchangePhase = "offer-pending"
	PhaseAnswerPending ExchangePhase = "answer-pending"
	PhaseEstablished   ExchangePhase = "established"
	PhaseFailed        ExchangePhase = "failed"
)

// Exchange is the transient record pairing a viewer with the room's
// broadcaster while their connection setup is relayed. It is discarded on
// success, viewer disconnect, or room termination; a reconnecting participant
// starts a fresh one.
type Exchange struct {
	RoomID          string
	ViewerID        string
	ViewerConnID    string
	BroadcasterID   string
	BroadcastConnID string
	Phase           ExchangePhase
}
