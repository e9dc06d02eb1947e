package transport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/perhassle/spotify-mvp-sub001/internal/log"
)

// WebSocketTransport broadcasts JSON payloads to every connected client
// of a small embedded WebSocket server. Slow delivery drops messages
// instead of blocking the sender.
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	server    *http.Server
}

// NewWebSocketTransport starts a WebSocket server on addr serving /ws
// and returns a transport broadcasting to its clients.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	t := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 256),
	}
	t.start()
	return t
}

func (t *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", t.handleWebSocket)

	t.server = &http.Server{Addr: t.addr, Handler: mux}

	go func() {
		log.Infof("transport: websocket server listening on %s", t.addr)
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("transport: websocket server: %v", err)
		}
	}()

	go t.handleBroadcasts()
}

func (t *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("transport: websocket upgrade: %v", err)
		return
	}

	t.clientsMu.Lock()
	t.clients[conn] = true
	total := len(t.clients)
	t.clientsMu.Unlock()
	log.Infof("transport: websocket client connected, total %d", total)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		t.clientsMu.Lock()
		delete(t.clients, conn)
		total := len(t.clients)
		t.clientsMu.Unlock()
		conn.Close()
		log.Infof("transport: websocket client disconnected, total %d", total)
	}()
}

func (t *WebSocketTransport) handleBroadcasts() {
	for data := range t.broadcast {
		t.clientsMu.Lock()
		for client := range t.clients {
			if err := client.WriteJSON(data); err != nil {
				log.Debugf("transport: websocket write: %v", err)
				client.Close()
				delete(t.clients, client)
			}
		}
		t.clientsMu.Unlock()
	}
}

// Send queues data for broadcast. When the queue is full the message is
// dropped; visualizer data is disposable.
func (t *WebSocketTransport) Send(data any) error {
	select {
	case t.broadcast <- data:
	default:
	}
	return nil
}

// Close disconnects all clients and shuts down the server.
func (t *WebSocketTransport) Close() error {
	t.clientsMu.Lock()
	for client := range t.clients {
		client.Close()
	}
	t.clients = make(map[*websocket.Conn]bool)
	t.clientsMu.Unlock()

	if t.server != nil {
		return t.server.Close()
	}
	return nil
}

var _ Transport = (*WebSocketTransport)(nil)
