// Package realtime 通过 WebSocket 把分类树变更推送给在线客户端。
// 推送内容只包含变更的节点 ID，客户端收到后重新拉取并重建本地树。
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"careerpath_go/internal/model"
	"careerpath_go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 客户端消费跟不上时丢弃该连接，不阻塞写操作
	sendBufferSize = 16
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub 维护所有在线连接。Publish 可以被多个 goroutine 并发调用。
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 鉴权由 AuthMiddleware 完成
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish 广播一条变更事件。
func (h *Hub) Publish(event model.FilterChangeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("Hub.Publish: failed to encode event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			log.Warnf("Hub.Publish: client too slow, dropping connection")
			h.removeLocked(c)
		}
	}
}

// ClientCount 返回当前在线连接数。
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS 把 HTTP 请求升级为 WebSocket 连接并注册到 Hub。
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失败时已经写过响应
		log.Warnf("Hub.ServeWS: upgrade failed: %v", err)
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	if !h.register(cl) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go h.writePump(cl)
	h.readPump(cl)
}

// Close 断开所有连接，之后的连接请求会被立即关闭。
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// removeLocked 调用方必须持有写锁。关闭 send 会让 writePump 退出并关闭连接。
func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// readPump 只用于感知断开和处理 pong，客户端发来的消息直接丢弃。
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
