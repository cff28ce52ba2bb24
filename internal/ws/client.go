package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-realtime/internal/config"
	"chat-realtime/internal/models"
)

const defaultSendBuffer = 256

// Client is one live socket. It satisfies registry.Endpoint; frames queued
// with Send are written by writePump in order.
type Client struct {
	info ConnInfo
	user models.UserSummary
	conn *websocket.Conn
	cfg  config.WebSocketConfig

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn, info ConnInfo, user models.UserSummary, cfg config.WebSocketConfig) *Client {
	size := cfg.SendBuffer
	if size <= 0 {
		size = defaultSendBuffer
	}
	return &Client{
		info: info,
		user: user,
		conn: conn,
		cfg:  cfg,
		send: make(chan []byte, size),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.info.ConnID }

// Send queues frame without blocking. A client whose buffer is full is
// closed: it has fallen too far behind to be useful.
func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		c.Close()
		return false
	}
}

// Close stops the write pump, which closes the connection. Safe to call more
// than once.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) readPump(handle func([]byte)) error {
	if c.cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		handle(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
