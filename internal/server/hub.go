package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/tinsel/internal/detector"
	"github.com/ayusman/tinsel/internal/gesture"
	"github.com/ayusman/tinsel/internal/scene"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 4
	// maxMessage bounds inbound messages; a landmarks frame is a few KB.
	maxMessage = 64 << 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local renderer only
	},
}

// SceneInput is what renderer clients can change.
type SceneInput interface {
	PublishLandmarks(hands []detector.HandLandmarks) gesture.Sample
	SetCamera(pose scene.CameraPose)
}

// Messages exchanged with renderer clients.
const (
	MsgFrame     = "frame"
	MsgLandmarks = "landmarks"
	MsgCamera    = "camera"
)

type inbound struct {
	Type   string              `json:"type"`
	Hands  []detector.WireHand `json:"hands"`
	Camera *scene.CameraPose   `json:"camera"`
}

type frameMessage struct {
	Type string `json:"type"`
	scene.Frame
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans scene frames out to WebSocket clients and reads their landmark
// and camera messages.
type Hub struct {
	input           SceneInput
	acceptLandmarks bool

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub. Landmark messages are ignored unless
// acceptLandmarks is set.
func NewHub(input SceneInput, acceptLandmarks bool) *Hub {
	return &Hub{
		input:           input,
		acceptLandmarks: acceptLandmarks,
		clients:         make(map[*client]struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends frame to every client. A client that has fallen behind
// skips the frame rather than queueing it.
func (h *Hub) Broadcast(frame scene.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}
	msg, err := json.Marshal(frameMessage{Type: MsgFrame, Frame: frame})
	if err != nil {
		log.Printf("Failed to encode frame: %v", err)
		return
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.conn.Close()
	}
}

// ServeHTTP upgrades the request and serves the client until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	conn.SetReadLimit(maxMessage)

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("Renderer connected from %s", r.RemoteAddr)

	done := make(chan struct{})
	go h.writeLoop(c, done)

	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(done)
	conn.Close()
	log.Printf("Renderer disconnected from %s", r.RemoteAddr)
}

// writeLoop is the only writer on c.conn.
func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) readLoop(c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case MsgLandmarks:
			if h.acceptLandmarks {
				h.input.PublishLandmarks(detector.FromWire(msg.Hands, 1))
			}
		case MsgCamera:
			if msg.Camera != nil {
				h.input.SetCamera(*msg.Camera)
			}
		}
	}
}
