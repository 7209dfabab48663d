package api

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"dex-radar/internal/services/notify"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AlertHub 把报警事件实时推给所有 WebSocket 订阅者。
// 实现 notify.Notifier，直接挂进监控服务的通知链。
type AlertHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewAlertHub() *AlertHub {
	return &AlertHub{conns: make(map[*websocket.Conn]struct{})}
}

// Notify 广播一条报警。写失败的连接当场摘掉。
func (h *AlertHub) Notify(ctx context.Context, event notify.AlertEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("⚠️ WebSocket 推送失败，断开连接: %v", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
	return nil
}

func (h *AlertHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *AlertHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

// AlertWebSocket 订阅报警推送。客户端只收不发，
// 读循环仅用于感知断开。
func (h *APIHandler) AlertWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket 升级失败: %v", err)
		return
	}
	h.hub.add(conn)

	go func() {
		defer h.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
