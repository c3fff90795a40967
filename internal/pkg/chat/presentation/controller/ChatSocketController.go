package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apardew63/wetarseel-server/internal/infrastructure/realtime"
	"github.com/apardew63/wetarseel-server/internal/pkg/chat/application/usecase"
	chat "github.com/apardew63/wetarseel-server/internal/pkg/chat/domain"
	repoAdapter "github.com/apardew63/wetarseel-server/internal/pkg/chat/persistence/repository/adapter"
)

// ChatSocketController owns the websocket endpoint and the per-connection
// event handlers: join, message:send, typing, disconnect.
type ChatSocketController struct {
	hub             *realtime.Hub
	sendMessageUC   *usecase.SendMessageUseCase
	inflightTimeout time.Duration
}

func NewChatSocketController(pool *pgxpool.Pool, hub *realtime.Hub) *ChatSocketController {
	repo := repoAdapter.NewPgChatRepository(pool)
	return &ChatSocketController{
		hub:             hub,
		sendMessageUC:   usecase.NewSendMessageUseCase(repo),
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering happens at the CORS layer; the handshake is
		// guarded by the session gate instead.
		return true
	},
}

type inboundFrame struct {
	Type           string            `json:"type"`
	ConversationID string            `json:"conversationID,omitempty"`
	Body           string            `json:"body,omitempty"`
	Attachments    []chat.Attachment `json:"attachments,omitempty"`
	IsTyping       bool              `json:"isTyping,omitempty"`
}

type ackFrame struct {
	Type  string `json:"type"`
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

type messageFrame struct {
	Type    string       `json:"type"`
	Message chat.Message `json:"message"`
}

type typingFrame struct {
	Type           string `json:"type"`
	UserID         string `json:"userID"`
	ConversationID string `json:"conversationID"`
	IsTyping       bool   `json:"isTyping"`
}

const defaultReadTimeout = 60 * time.Second

// Handle authenticates the handshake through the hub's session gate,
// upgrades, and processes frames until the client disconnects. A rejected
// handshake never produces a Connection.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := ctl.hub.Authorize(c.Request)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		ctl.hub.Attach(conn)
		log.Printf("chat: socket connected for user %s", userID)
		defer func() {
			// Disconnect is deliberately silent (no presence broadcast yet);
			// room memberships die with the connection.
			ctl.hub.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.ack(conn, ackFrame{Type: "ack", OK: false, Error: "invalid payload"})
				continue
			}

			ctl.dispatch(conn, frame)
		}
	}
}

// dispatch routes one frame to its handler. Faults are contained here: a
// panicking handler yields a logged warning, never a dropped connection.
func (ctl *ChatSocketController) dispatch(conn *realtime.Connection, frame inboundFrame) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("chat: handler fault for %q frame: %v", frame.Type, rec)
			ctl.ack(conn, ackFrame{Type: "ack", OK: false, Error: "internal error"})
		}
	}()

	switch frame.Type {
	case "join":
		ctl.handleJoin(conn, frame)
	case "message:send":
		ctl.handleMessage(conn, frame)
	case "typing":
		ctl.handleTyping(conn, frame)
	default:
		ctl.ack(conn, ackFrame{Type: "ack", OK: false, Error: "unknown frame type"})
	}
}

// handleJoin adds the connection to the room. Rooms are implicit and
// created on first join; there is no existence check and no ack.
func (ctl *ChatSocketController) handleJoin(conn *realtime.Connection, frame inboundFrame) {
	if frame.ConversationID == "" {
		return
	}
	ctl.hub.Join(frame.ConversationID, conn)
}

// handleMessage persists the message, rolls the conversation summary,
// broadcasts message:new to the room and acks the sender. The steps run in
// order and stop at the first failure, in which case only a negative ack is
// produced. Sending does not require room membership; only receiving does.
func (ctl *ChatSocketController) handleMessage(conn *realtime.Connection, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), ctl.inflightTimeout)
	defer cancel()

	msg, err := ctl.sendMessageUC.Execute(ctx, usecase.SendMessageInput{
		ConversationID: frame.ConversationID,
		Sender:         conn.UserID,
		Body:           frame.Body,
		Attachments:    frame.Attachments,
	})
	if err != nil {
		ctl.ack(conn, ackFrame{Type: "ack", OK: false, Error: errorReason(err)})
		return
	}

	payload, err := json.Marshal(messageFrame{Type: "message:new", Message: *msg})
	if err != nil {
		ctl.ack(conn, ackFrame{Type: "ack", OK: false, Error: "failed to encode message"})
		return
	}

	ctl.hub.Broadcast(frame.ConversationID, payload, "")
	ctl.ack(conn, ackFrame{Type: "ack", OK: true, ID: msg.ID})
}

// handleTyping fans the indicator out to the other members of the room.
// Fire-and-forget: nothing is persisted and no ack is sent.
func (ctl *ChatSocketController) handleTyping(conn *realtime.Connection, frame inboundFrame) {
	if frame.ConversationID == "" {
		return
	}
	payload, err := json.Marshal(typingFrame{
		Type:           "typing",
		UserID:         conn.UserID,
		ConversationID: frame.ConversationID,
		IsTyping:       frame.IsTyping,
	})
	if err != nil {
		return
	}
	ctl.hub.Broadcast(frame.ConversationID, payload, conn.UserID)
}

func (ctl *ChatSocketController) ack(conn *realtime.Connection, frame ackFrame) {
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}

func errorReason(err error) string {
	if errors.Is(err, usecase.ErrPersistence) {
		return "failed to save message"
	}
	return err.Error()
}
