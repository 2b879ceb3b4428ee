package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws     *websocket.Conn
	send   chan []byte
	once   sync.Once
	closed bool // 只在房间 Tick 线程读写
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	if c.closed || b == nil {
		return
	}
	select {
	case c.send <- b:
	default:
		// 为了实时性，丢弃新消息（防止阻塞 Tick）
	}
}

// Close 关闭发送队列与底层连接
func (c *ClientConn) Close() {
	c.once.Do(func() {
		c.closed = true
		close(c.send)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端输入，转换为 Input 注入房间
func (c *ClientConn) readPump(room *Room, playerID PlayerID, limiter *rate.Limiter) {
	defer c.ws.Close()
	// 读泵退出时，通知房间在 Tick 线程中移除该玩家
	defer room.RequestLeave(playerID, c)
	c.ws.SetReadLimit(1 << 20) // 1MB
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Warnf("read error: room=%s player=%s err=%v", room.ID, playerID, err)
			}
			return
		}
		var im InputMessage
		if err := json.Unmarshal(payload, &im); err != nil {
			continue
		}
		in, ok := im.ToInput(playerID)
		if !ok {
			continue
		}
		if !limiter.Allow() {
			room.metrics.RateLimited.Add(1)
			continue
		}
		room.OnInput(in)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// welcomeMessage 连接建立后首先下发的消息
type welcomeMessage struct {
	Type    string `json:"type"`
	Session string `json:"session"`
	Room    string `json:"room"`
	Player  string `json:"player"`
	TPS     int    `json:"tps"`
}

// HandleWS WebSocket 接入：?room=room-1&player=alice
func (m *RoomManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = defaultRoom
	}
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		http.Error(w, "missing player query", http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	room := m.GetOrCreateRoom(roomID)
	session := uuid.NewString()

	client := NewClientConn(ws)
	client.Enqueue(room.marshal(welcomeMessage{
		Type:    "welcome",
		Session: session,
		Room:    roomID,
		Player:  playerID,
		TPS:     m.tps,
	}))
	room.JoinPlayer(PlayerID(playerID), session, client)
	Log.Infof("ws connected: room=%s player=%s session=%s", roomID, playerID, session)

	limiter := rate.NewLimiter(rate.Limit(m.inputRate), m.inputBurst)
	go client.writePump()
	go client.readPump(room, PlayerID(playerID), limiter)
}
