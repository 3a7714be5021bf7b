package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"rafiq/internal/models"
	"rafiq/pkg/rafiqai"
)

// WebSocketMessage is one frame of the live assistant channel.
type WebSocketMessage struct {
	Type           string      `json:"type"`
	Data           interface{} `json:"data"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// WebSocketClient is one connected citizen browser tab.
type WebSocketClient struct {
	ID             string
	UserID         uint
	ConversationID string
	Language       string
	Conn           *websocket.Conn
	Send           chan WebSocketMessage
	Hub            *WebSocketHub

	closeOnce sync.Once
}

// queue hands a frame to the write pump, dropping it when the buffer is full.
func (c *WebSocketClient) queue(message WebSocketMessage) {
	select {
	case c.Send <- message:
	default:
	}
}

// WebSocketHub relays live chat between citizens and the assistant and
// pushes sync events to whoever is connected.
type WebSocketHub struct {
	clients    map[string]*WebSocketClient
	broadcast  chan WebSocketMessage
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	mutex      sync.RWMutex

	assistant     *AssistantService
	conversations *ConversationService
	logger        *logrus.Logger
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the CORS layer in front
	},
}

// NewWebSocketHub creates the hub. Run must be started on its own goroutine.
func NewWebSocketHub(assistant *AssistantService, conversations *ConversationService, logger *logrus.Logger) *WebSocketHub {
	if logger == nil {
		logger = logrus.New()
	}

	return &WebSocketHub{
		clients:       make(map[string]*WebSocketClient),
		broadcast:     make(chan WebSocketMessage),
		register:      make(chan *WebSocketClient),
		unregister:    make(chan *WebSocketClient),
		assistant:     assistant,
		conversations: conversations,
		logger:        logger,
	}
}

// Run pumps registrations and broadcasts until the process exits.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			h.mutex.Unlock()
			h.logger.Infof("WebSocket client %s connected (conversation %s)", client.ID, client.ConversationID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				h.logger.Infof("WebSocket client %s disconnected", client.ID)
			}
			h.mutex.Unlock()
			// only the unregister path closes Send; the read pump may
			// still queue frames until its own teardown reaches here
			client.closeOnce.Do(func() { close(client.Send) })

		case message := <-h.broadcast:
			h.mutex.Lock()
			for _, client := range h.clients {
				if message.ConversationID != "" && client.ConversationID != message.ConversationID {
					continue
				}
				select {
				case client.Send <- message:
				default:
					// slow client: evict it and let the pumps tear
					// down through unregister
					delete(h.clients, client.ID)
					if client.Conn != nil {
						client.Conn.Close()
					}
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Serve upgrades an authenticated request and attaches the client to its
// conversation.
func (h *WebSocketHub) Serve(w http.ResponseWriter, r *http.Request, userID uint, conversationID, language string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	if language == "" {
		language = "fr"
	}

	client := &WebSocketClient{
		ID:             fmt.Sprintf("client_%d", time.Now().UnixNano()),
		UserID:         userID,
		ConversationID: conversationID,
		Language:       language,
		Conn:           conn,
		Send:           make(chan WebSocketMessage, 256),
		Hub:            h,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// NotifySyncComplete tells connected clients that their offline queue has
// been replayed.
func (h *WebSocketHub) NotifySyncComplete(result *SyncBatchResult) {
	h.broadcast <- WebSocketMessage{
		Type:      "sync_complete",
		Data:      result,
		Timestamp: time.Now(),
	}
}

// SendToConversation pushes one message to a conversation's clients.
func (h *WebSocketHub) SendToConversation(conversationID string, message WebSocketMessage) {
	message.ConversationID = conversationID
	message.Timestamp = time.Now()
	h.broadcast <- message
}

// GetClientCount reports connected clients for the health endpoint.
func (h *WebSocketHub) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Errorf("WebSocket error: %v", err)
			}
			break
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			c.Hub.logger.Errorf("Invalid WebSocket message: %v", err)
			continue
		}

		message.ConversationID = c.ConversationID
		message.Timestamp = time.Now()

		switch message.Type {
		case "chat":
			c.handleChat(message)
		case "ping":
			c.queue(WebSocketMessage{Type: "pong", Timestamp: time.Now()})
		default:
			c.Hub.logger.Warnf("Unknown WebSocket message type: %s", message.Type)
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
				c.Hub.logger.Errorf("WriteJSON error: %v", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleChat runs one citizen turn through the assistant and pushes the
// reply back onto the conversation.
func (c *WebSocketClient) handleChat(message WebSocketMessage) {
	content, _ := message.Data.(string)
	if content == "" {
		c.queue(WebSocketMessage{Type: "error", Data: "empty message", Timestamp: time.Now()})
		return
	}

	ctx := context.Background()
	hub := c.Hub

	if _, err := hub.conversations.AppendMessage(ctx, c.UserID, c.ConversationID, &models.Message{
		Role:    "user",
		Content: content,
	}); err != nil {
		c.queue(WebSocketMessage{Type: "error", Data: err.Error(), Timestamp: time.Now()})
		return
	}

	history, err := hub.conversations.History(ctx, c.UserID, c.ConversationID)
	if err != nil {
		c.queue(WebSocketMessage{Type: "error", Data: err.Error(), Timestamp: time.Now()})
		return
	}

	turns := make([]rafiqai.Message, 0, len(history))
	for _, msg := range history {
		turns = append(turns, rafiqai.Message{Role: msg.Role, Content: msg.Content})
	}

	reply := hub.assistant.GenerateChatResponse(ctx, c.ConversationID, turns, c.Language)

	if _, err := hub.conversations.AppendMessage(ctx, c.UserID, c.ConversationID, &models.Message{
		Role:       "assistant",
		Content:    reply.Content,
		Confidence: reply.Confidence,
		Source:     reply.Source,
	}); err != nil {
		hub.logger.Errorf("Failed to store assistant reply: %v", err)
	}

	hub.SendToConversation(c.ConversationID, WebSocketMessage{
		Type: "assistant_reply",
		Data: map[string]interface{}{
			"content":         reply.Content,
			"source":          reply.Source,
			"confidence":      reply.Confidence,
			"recommendations": reply.Recommendations,
		},
	})
}
