package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"neonx-web/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Frame is one message pushed to browsers.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	FrameTick      = "tick"
	FrameCountdown = "countdown"

	writeWait = 5 * time.Second
)

type client struct {
	id   string
	conn *websocket.Conn
}

type WebSocketServer struct {
	clients    map[*websocket.Conn]*client
	broadcast  chan Frame
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	sent       int
}

func NewWebSocketServer(allowedOrigins []string) *WebSocketServer {
	s := &WebSocketServer{
		clients:    make(map[*websocket.Conn]*client),
		broadcast:  make(chan Frame, 100),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	return s
}

// originChecker allows every origin when none are configured.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		return set[r.Header.Get("Origin")]
	}
}

func (s *WebSocketServer) Start() {
	go s.run()
}

// Stop closes every client connection and ends the hub loop.
func (s *WebSocketServer) Stop() {
	close(s.done)
}

func (s *WebSocketServer) run() {
	for {
		select {
		case <-s.done:
			s.mutex.Lock()
			for conn := range s.clients {
				conn.Close()
				delete(s.clients, conn)
			}
			s.mutex.Unlock()
			return

		case conn := <-s.register:
			c := &client{id: uuid.NewString(), conn: conn}
			s.mutex.Lock()
			s.clients[conn] = c
			total := len(s.clients)
			s.mutex.Unlock()
			log.Printf("[INFO] client %s connected. Total clients: %d", c.id, total)

		case conn := <-s.unregister:
			s.mutex.Lock()
			c, ok := s.clients[conn]
			delete(s.clients, conn)
			total := len(s.clients)
			s.mutex.Unlock()
			if ok {
				conn.Close()
				log.Printf("[INFO] client %s disconnected. Total clients: %d", c.id, total)
			}

		case frame := <-s.broadcast:
			s.send(frame)
		}
	}
}

func (s *WebSocketServer) send(frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[ERROR] marshal %s frame: %v", frame.Type, err)
		return
	}

	s.mutex.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mutex.RUnlock()

	successCount := 0
	for _, c := range clients {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("[WARN] send to client %s: %v", c.id, err)
			s.mutex.Lock()
			delete(s.clients, c.conn)
			s.mutex.Unlock()
			c.conn.Close()
			continue
		}
		successCount++
	}

	s.sent++
	if len(clients) > 0 && s.sent%50 == 0 {
		log.Printf("[INFO] broadcast %d frames, last %s to %d/%d clients", s.sent, frame.Type, successCount, len(clients))
	}
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] upgrade connection to WebSocket: %v", err)
		return
	}

	select {
	case s.register <- conn:
	case <-s.done:
		conn.Close()
		return
	}

	// Browsers only listen; reading keeps close frames flowing.
	go func() {
		defer func() {
			select {
			case s.unregister <- conn:
			case <-s.done:
			}
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[WARN] WebSocket error: %v", err)
				}
				return
			}
		}
	}()
}

// Publish queues a frame; it drops the frame when the queue is full so a
// slow hub never stalls the feed.
func (s *WebSocketServer) Publish(frame Frame) bool {
	select {
	case s.broadcast <- frame:
		return true
	default:
		log.Printf("[WARN] broadcast queue full, dropping %s frame", frame.Type)
		return false
	}
}

func (s *WebSocketServer) BroadcastTick(tick models.Tick) {
	s.Publish(Frame{Type: FrameTick, Data: tick})
}

// SetCountdown lets the hub act as a countdown sink.
func (s *WebSocketServer) SetCountdown(parts models.CountdownParts) {
	s.Publish(Frame{Type: FrameCountdown, Data: parts})
}

func (s *WebSocketServer) GetClientCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.clients)
}
