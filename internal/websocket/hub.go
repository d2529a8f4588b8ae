package websocket

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of connected field devices, feeds their audio
// into the session controller, and broadcasts transcript and state
// updates back out.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	controller *usecase.SessionController
	logger     *zap.Logger
}

// NewHub creates a new WebSocket hub and wires itself into the
// controller's observer callbacks.
func NewHub(controller *usecase.SessionController, logger *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		controller: controller,
		logger:     logger,
	}

	controller.SetCallbacks(usecase.ControllerCallbacks{
		OnStateChange: h.broadcastState,
		OnEntries:     h.broadcastEntries,
		OnPartial:     h.broadcastPartial,
	})
	controller.Review().OnStateChange(h.broadcastReviewState)

	return h
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.deviceID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("deviceID", client.deviceID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.deviceID]; ok {
				delete(h.clients, client.deviceID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("deviceID", client.deviceID))
		}
	}
}

// HandleConnection upgrades an authenticated request and runs the
// client's pumps.
func (h *Hub) HandleConnection(c echo.Context, deviceID string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 64),
		deviceID: deviceID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
	return nil
}

// BroadcastNarration delivers synthesized narration audio to all
// connected clients. The sink player uses this as its output.
func (h *Hub) BroadcastNarration(audio []byte) {
	msg := NarrationAudioMessage{
		BaseMessage: newBase(MessageTypeNarrationAudio),
		AudioData:   base64.StdEncoding.EncodeToString(audio),
	}
	h.broadcast(msg)
}

func (h *Hub) broadcastEntries(sessionID string, entries []entities.TranscriptEntry) {
	h.broadcast(TranscriptUpdateMessage{
		BaseMessage: newBase(MessageTypeTranscriptUpdate),
		SessionID:   sessionID,
		Entries:     entries,
	})
}

func (h *Hub) broadcastPartial(sessionID, text string) {
	h.broadcast(PartialTranscriptMessage{
		BaseMessage: newBase(MessageTypePartialTranscript),
		SessionID:   sessionID,
		Text:        text,
	})
}

func (h *Hub) broadcastState(sessionID string, state entities.SessionState) {
	h.broadcast(SessionStateMessage{
		BaseMessage: newBase(MessageTypeSessionState),
		SessionID:   sessionID,
		State:       state,
	})
}

func (h *Hub) broadcastReviewState(state usecase.ReviewState) {
	h.broadcast(ReviewStateMessage{
		BaseMessage: newBase(MessageTypeReviewState),
		State:       string(state),
	})
}

func (h *Hub) broadcast(msg interface{}) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Slow client; drop the frame rather than block the hub.
			h.logger.Warn("dropping frame for slow client",
				zap.String("deviceID", client.deviceID))
		}
	}
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	deviceID string
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		c.handleMessage(raw)
	}
}

func (c *Client) handleMessage(raw []byte) {
	msgType, err := PeekType(raw)
	if err != nil {
		c.sendError("bad_message", err.Error())
		return
	}

	switch msgType {
	case MessageTypeAudioChunk:
		var msg AudioChunkMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("bad_message", err.Error())
			return
		}
		if err := msg.Validate(); err != nil {
			c.sendError("bad_message", err.Error())
			return
		}
		audio, err := base64.StdEncoding.DecodeString(msg.AudioData)
		if err != nil {
			c.sendError("bad_audio", "audio_data is not valid base64")
			return
		}
		if err := c.hub.controller.FeedAudio(audio); err != nil {
			c.sendError("audio_rejected", err.Error())
		}

	case MessageTypePing:
		payload, _ := json.Marshal(BaseMessage{Type: MessageTypePong, Timestamp: time.Now().UTC().Format(time.RFC3339)})
		select {
		case c.send <- payload:
		default:
		}

	default:
		c.sendError("unsupported_type", string(msgType))
	}
}

func (c *Client) sendError(code, message string) {
	payload, err := json.Marshal(ErrorMessage{
		BaseMessage: newBase(MessageTypeError),
		Code:        code,
		Message:     message,
	})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
