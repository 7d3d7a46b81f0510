package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/viewvista/stream-service/internal/domain"
	"github.com/viewvista/stream-service/internal/hub"
	"github.com/viewvista/stream-service/internal/session"
	pkglog "github.com/viewvista/stream-service/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // framing/auth is owned by the fronting transport
	},
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub     *hub.Hub
	manager *session.Manager
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(h *hub.Hub, m *session.Manager) *WSHandler {
	return &WSHandler{hub: h, manager: m}
}

// HandleWebSocket handles WebSocket upgrade and message routing.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	l := pkglog.L()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &hub.Client{
		ID:   uuid.New().String(),
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	client.SetDisconnectHandler(func(c *hub.Client) {
		h.manager.Disconnect(c.ID)
	})

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	l := pkglog.L()

	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message format"))
		return
	}

	switch base.Type {
	case domain.MsgTypeStartRoom:
		var msg domain.StartRoomMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid start_room message"))
			return
		}
		if err := h.manager.StartRoom(client.ID, msg); err != nil {
			l.Warn().Err(err).Str(pkglog.FieldConnID, client.ID).Msg("start room rejected")
		}

	case domain.MsgTypeJoinRoom:
		var msg domain.JoinRoomMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid join_room message"))
			return
		}
		if err := h.manager.JoinRoom(client.ID, msg); err != nil {
			l.Warn().Err(err).Str(pkglog.FieldConnID, client.ID).Msg("join rejected")
		}

	case domain.MsgTypeSignal:
		var msg domain.SignalMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid signal message"))
			return
		}
		_ = h.manager.Signal(client.ID, msg)

	case domain.MsgTypeChat:
		var msg domain.ChatSendMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid chat_message"))
			return
		}
		if err := h.manager.Chat(client.ID, msg); err != nil {
			l.Debug().Err(err).Str(pkglog.FieldConnID, client.ID).Msg("chat rejected")
		}

	case domain.MsgTypePauseRoom:
		var msg domain.RoomControlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid pause_room message"))
			return
		}
		if err := h.manager.Pause(client.ID, msg.RoomID); err != nil {
			l.Debug().Err(err).Str(pkglog.FieldConnID, client.ID).Msg("pause rejected")
		}

	case domain.MsgTypeResumeRoom:
		var msg domain.RoomControlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid resume_room message"))
			return
		}
		if err := h.manager.Resume(client.ID, msg.RoomID); err != nil {
			l.Debug().Err(err).Str(pkglog.FieldConnID, client.ID).Msg("resume rejected")
		}

	case domain.MsgTypeEndRoom:
		var msg domain.RoomControlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid end_room message"))
			return
		}
		if err := h.manager.End(client.ID, msg.RoomID); err != nil {
			l.Debug().Err(err).Str(pkglog.FieldConnID, client.ID).Msg("end rejected")
		}

	case domain.MsgTypeListPublic:
		client.SendMessage(&domain.PublicStreamsMessage{
			Type:    domain.MsgTypePublicStreams,
			Streams: h.manager.ListPublic(),
		})

	case domain.MsgTypePing:
		client.SendMessage(map[string]string{"type": domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Unknown message type"))
	}
}
