// 向浏览器可视化推送路口快照的websocket服务
package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Pattern 挂载路径
const Pattern = "/ws"

const (
	// 单条消息的写超时
	writeWait = 10 * time.Second
	// 每个连接待发送消息的缓冲数，写满时断开该连接
	sendBuffer = 16
)

var (
	log = logrus.WithField("module", "web")

	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

// client 一个websocket连接及其发送队列
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub websocket连接集合
// 功能：接受浏览器连接，把每次广播的消息放入所有连接的发送队列
// 说明：每个连接由独立的协程写出，Broadcast不等待网络IO；队列写满或写失败的连接被移除
type Hub struct {
	mtx     sync.Mutex
	clients map[*client]struct{}
	last    []byte // 最近一次广播的消息，新连接建立后立即收到
}

// NewHub 创建空的Hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// ServeHTTP 升级为websocket连接并登记
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("upgrade connection err: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mtx.Lock()
	if h.last != nil {
		c.send <- h.last
	}
	h.clients[c] = struct{}{}
	log.Infof("websocket client connected, total %d", len(h.clients))
	h.mtx.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)
}

// writeLoop 按顺序写出发送队列中的消息，队列关闭或写失败时退出
func (h *Hub) writeLoop(c *client) {
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Warnf("websocket write err: %v", err)
			h.remove(c)
			return
		}
	}
}

// readLoop 丢弃客户端消息，直到连接关闭
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("websocket err: %v", err)
			}
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.removeLocked(c) {
		log.Infof("websocket client disconnected, remaining %d", len(h.clients))
	}
}

// removeLocked 移除连接并关闭其发送队列（调用方持有锁）
// 返回：连接此前是否登记
func (h *Hub) removeLocked(c *client) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	close(c.send)
	c.conn.Close()
	return true
}

// Broadcast 把v编码为JSON并放入所有连接的发送队列
func (h *Hub) Broadcast(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mtx.Lock()
	defer h.mtx.Unlock()
	h.last = b
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			log.Warnf("websocket client %v too slow, dropped", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
	return nil
}

// Len 当前连接数
func (h *Hub) Len() int {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return len(h.clients)
}

// Close 通知并关闭所有连接
func (h *Hub) Close() {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
	for c := range h.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		h.removeLocked(c)
	}
}
