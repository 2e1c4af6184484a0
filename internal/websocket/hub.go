package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"campusdate/backend/internal/auth/jwt"
	"campusdate/backend/internal/realtime"
)

var _ realtime.Sink = (*Hub)(nil)

// Authenticator 校验访问令牌
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*jwt.Claims, error)
}

// upgraderFactory 创建带有 Origin 验证的 WebSocket 升级器
func upgraderFactory(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			requestOrigin := r.Header.Get("Origin")
			if requestOrigin == "" {
				return true
			}
			for _, origin := range allowedOrigins {
				if origin == "*" || requestOrigin == origin {
					return true
				}
			}
			return false
		},
	}
}

// MessageType 定义WebSocket消息类型
type MessageType string

const (
	MessageTypeEvent       MessageType = "event"
	MessageTypePing        MessageType = "ping"
	MessageTypePong        MessageType = "pong"
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeSubscribed  MessageType = "subscribed"
	MessageTypeError       MessageType = "error"
)

// subscribableTables 客户端可订阅的表
var subscribableTables = map[string]bool{
	realtime.TableMessageRequests:   true,
	realtime.TableConversations:     true,
	realtime.TableMessages:          true,
	realtime.TableMatches:           true,
	realtime.TableUserVerifications: true,
}

// Message 定义WebSocket消息结构
type Message struct {
	Type      MessageType     `json:"type"`
	Tables    []string        `json:"tables,omitempty"`
	Table     string          `json:"table,omitempty"`
	Action    string          `json:"action,omitempty"`
	RecordID  string          `json:"recordId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Client 代表一个WebSocket客户端连接
type Client struct {
	ID     string
	UserID string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	tables map[string]bool // 订阅的表，为空表示全部
	mu     sync.RWMutex
	log    *zap.Logger
}

// wants 判断客户端是否订阅了该表
func (c *Client) wants(table string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables) == 0 || c.tables[table]
}

// Hub 管理所有WebSocket连接，按用户投递变更事件
type Hub struct {
	clients        map[string]*Client            // clientID -> Client
	users          map[string]map[string]*Client // userID -> clientID -> Client
	register       chan *Client
	unregister     chan *Client
	events         chan realtime.Event
	mu             sync.RWMutex
	log            *zap.Logger
	allowedOrigins []string
	auth           Authenticator
}

// NewHub 创建WebSocket Hub
func NewHub(allowedOrigins []string, auth Authenticator, log *zap.Logger) *Hub {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Hub{
		clients:        make(map[string]*Client),
		users:          make(map[string]map[string]*Client),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		events:         make(chan realtime.Event, 256),
		log:            log,
		allowedOrigins: allowedOrigins,
		auth:           auth,
	}
}

// Run 启动Hub
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("websocket hub stopped")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.events:
			h.dispatch(event)

		case <-ticker.C:
			h.pingAllClients()
		}
	}
}

// Deliver 实现 realtime.Sink，队列满时丢弃
func (h *Hub) Deliver(event realtime.Event) {
	select {
	case h.events <- event:
	default:
		h.log.Warn("websocket event queue full, dropping event",
			zap.String("table", event.Table),
			zap.String("recordID", event.RecordID))
	}
}

// ConnectedUsers 返回当前在线用户数
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[string]*Client)
	}
	h.users[client.UserID][client.ID] = client
	h.log.Info("client registered", zap.String("id", client.ID), zap.String("userID", client.UserID))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if conns, exists := h.users[client.UserID]; exists {
		delete(conns, client.ID)
		if len(conns) == 0 {
			delete(h.users, client.UserID)
		}
	}
	delete(h.clients, client.ID)
	close(client.send)
	h.log.Info("client unregistered", zap.String("id", client.ID))
}

// dispatch 将事件投递给 UserIDs 中订阅了该表的客户端
func (h *Hub) dispatch(event realtime.Event) {
	msg := &Message{
		Type:      MessageTypeEvent,
		Table:     event.Table,
		Action:    string(event.Action),
		RecordID:  event.RecordID,
		Data:      event.Payload,
		Timestamp: event.At,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range event.UserIDs {
		for _, client := range h.users[userID] {
			if !client.wants(event.Table) {
				continue
			}
			select {
			case client.send <- data:
			default:
				h.log.Warn("client channel blocked, skipping", zap.String("clientID", client.ID))
			}
		}
	}
}

// pingAllClients 向所有客户端发送ping
func (h *Hub) pingAllClients() {
	data, err := json.Marshal(&Message{Type: MessageTypePing, Timestamp: time.Now()})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

// closeAllClients 关闭所有客户端连接
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[string]*Client)
	h.users = make(map[string]map[string]*Client)
}

// authenticateClient 从 query 或 Authorization 头读取令牌并认证
func (h *Hub) authenticateClient(c *gin.Context) (*Client, error) {
	token := c.Query("token")
	if token == "" {
		if scheme, value, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok && scheme == "Bearer" {
			token = value
		}
	}
	if token == "" {
		return nil, errors.New("missing authentication token")
	}

	claims, err := h.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		return nil, err
	}

	return &Client{
		ID:     uuid.NewString(),
		UserID: claims.UserID,
		tables: make(map[string]bool),
		log:    h.log,
	}, nil
}

// HandleWebSocket 处理WebSocket连接
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	upgrader := upgraderFactory(hub.allowedOrigins)

	return func(c *gin.Context) {
		client, err := hub.authenticateClient(c)
		if err != nil {
			hub.log.Warn("websocket authentication failed",
				zap.Error(err),
				zap.String("remote_addr", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "msg": "authentication required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Error("failed to upgrade connection",
				zap.Error(err),
				zap.String("origin", c.Request.Header.Get("Origin")),
				zap.String("remote_addr", c.ClientIP()))
			return
		}

		client.conn = conn
		client.hub = hub
		client.send = make(chan []byte, 256)

		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

// readPump 处理客户端消息
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error("websocket error", zap.Error(err))
			}
			break
		}
		c.handleMessage(&msg)
	}
}

// writePump 发送消息给客户端
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理接收到的消息
func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeSubscribe:
		c.subscribe(msg.Tables)
	case MessageTypeUnsubscribe:
		c.unsubscribe(msg.Tables)
	case MessageTypePong:
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	default:
		c.log.Warn("unknown message type", zap.String("type", string(msg.Type)))
	}
}

// subscribe 订阅表，未知的表返回错误
func (c *Client) subscribe(tables []string) {
	if len(tables) == 0 {
		c.sendError("tables are required")
		return
	}
	for _, table := range tables {
		if !subscribableTables[table] {
			c.sendError("unknown table: " + table)
			return
		}
	}

	c.mu.Lock()
	for _, table := range tables {
		c.tables[table] = true
	}
	current := c.subscribedTablesLocked()
	c.mu.Unlock()

	c.sendMessage(&Message{Type: MessageTypeSubscribed, Tables: current, Timestamp: time.Now()})
}

// unsubscribe 取消订阅表
func (c *Client) unsubscribe(tables []string) {
	c.mu.Lock()
	for _, table := range tables {
		delete(c.tables, table)
	}
	current := c.subscribedTablesLocked()
	c.mu.Unlock()

	c.sendMessage(&Message{Type: MessageTypeSubscribed, Tables: current, Timestamp: time.Now()})
}

func (c *Client) subscribedTablesLocked() []string {
	out := make([]string, 0, len(c.tables))
	for table := range c.tables {
		out = append(out, table)
	}
	return out
}

// sendError 发送错误消息给客户端
func (c *Client) sendError(errMsg string) {
	c.sendMessage(&Message{Type: MessageTypeError, Error: errMsg, Timestamp: time.Now()})
}

// sendMessage 发送消息给客户端
func (c *Client) sendMessage(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("failed to marshal message", zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn("client channel blocked", zap.String("clientID", c.ID))
	}
}
