package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/expofest/engage_backend/internal/engage"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

type scanMessage struct {
	eventID uint
	payload []byte
}

// ScanHub fans committed scan outcomes out to gate dashboards. Clients may
// subscribe to a single event or to everything.
type ScanHub struct {
	register   chan *scanClient
	unregister chan *scanClient
	broadcast  chan scanMessage
	clients    map[*scanClient]struct{}
}

func NewScanHub() *ScanHub {
	return &ScanHub{
		register:   make(chan *scanClient),
		unregister: make(chan *scanClient),
		broadcast:  make(chan scanMessage, 256),
		clients:    make(map[*scanClient]struct{}),
	}
}

func (h *ScanHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				client.conn.Close()
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.eventID != 0 && client.eventID != msg.eventID {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					delete(h.clients, client)
					close(client.send)
					client.conn.Close()
				}
			}
		}
	}
}

// PublishScan implements engage.ScanPublisher.
func (h *ScanHub) PublishScan(ev engage.ScanEvent) {
	if h == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ws: failed to marshal scan event: %v", err)
		return
	}
	h.broadcast <- scanMessage{eventID: ev.EventID, payload: data}
}

type scanClient struct {
	hub  *ScanHub
	conn *websocket.Conn
	send chan []byte
	// eventID scopes the subscription; 0 means all events.
	eventID uint
}

func newScanClient(hub *ScanHub, conn *websocket.Conn, eventID uint) *scanClient {
	return &scanClient{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		eventID: eventID,
	}
}

func (c *scanClient) readPump() {
	defer func() {
		c.hub.unregister <- c
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *scanClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.unregister <- c
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
