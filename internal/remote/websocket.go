package remote

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/perhassle/spotify-mvp-sub001/internal/log"
)

// command is the inbound wire format from remote clients.
type command struct {
	Command    string  `json:"command"`
	PositionMs float64 `json:"positionMs,omitempty"`
}

// WebSocketAdapter serves transport control over a WebSocket endpoint:
// now-playing snapshots broadcast out as JSON, commands come back as
// JSON messages. It backs remote-control UIs the same way an OS media
// surface would.
type WebSocketAdapter struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan NowPlaying
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	server    *http.Server
	cmds      Commands
}

// NewWebSocketAdapter creates an adapter serving /remote on addr. The
// server starts on Start.
func NewWebSocketAdapter(addr string) *WebSocketAdapter {
	return &WebSocketAdapter{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan NowPlaying, 64),
		done:      make(chan struct{}),
	}
}

// Start launches the server and begins forwarding client commands.
func (a *WebSocketAdapter) Start(cmds Commands) error {
	a.cmds = cmds

	mux := http.NewServeMux()
	mux.HandleFunc("/remote", a.handleClient)
	a.server = &http.Server{Addr: a.addr, Handler: mux}

	go func() {
		log.Infof("remote: websocket adapter listening on %s", a.addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("remote: websocket server: %v", err)
		}
	}()
	a.wg.Add(1)
	go a.handleBroadcasts()
	return nil
}

func (a *WebSocketAdapter) handleClient(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("remote: upgrade: %v", err)
		return
	}

	a.clientsMu.Lock()
	a.clients[conn] = true
	a.clientsMu.Unlock()
	log.Infof("remote: client connected from %s", conn.RemoteAddr())

	go a.readCommands(conn)
}

func (a *WebSocketAdapter) readCommands(conn *websocket.Conn) {
	defer func() {
		a.clientsMu.Lock()
		delete(a.clients, conn)
		a.clientsMu.Unlock()
		conn.Close()
		log.Infof("remote: client %s disconnected", conn.RemoteAddr())
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			log.Warnf("remote: bad command payload: %v", err)
			continue
		}
		a.dispatch(cmd)
	}
}

func (a *WebSocketAdapter) dispatch(cmd command) {
	if a.cmds == nil {
		return
	}
	switch cmd.Command {
	case "play":
		a.cmds.Play()
	case "pause":
		a.cmds.Pause()
	case "seekTo":
		a.cmds.SeekTo(time.Duration(cmd.PositionMs * float64(time.Millisecond)))
	case "next":
		a.cmds.Next()
	case "previous":
		a.cmds.Previous()
	default:
		log.Warnf("remote: unknown command %q", cmd.Command)
	}
}

func (a *WebSocketAdapter) handleBroadcasts() {
	defer a.wg.Done()
	for {
		var np NowPlaying
		select {
		case <-a.done:
			return
		case np = <-a.broadcast:
		}
		a.clientsMu.Lock()
		for client := range a.clients {
			if err := client.WriteJSON(np); err != nil {
				client.Close()
				delete(a.clients, client)
			}
		}
		a.clientsMu.Unlock()
	}
}

// Publish queues a snapshot for broadcast, dropping under backpressure.
func (a *WebSocketAdapter) Publish(np NowPlaying) {
	select {
	case a.broadcast <- np:
	default:
	}
}

// Close stops the broadcast goroutine, disconnects all clients and
// shuts down the server. Safe to call multiple times.
func (a *WebSocketAdapter) Close() error {
	a.stopOnce.Do(func() { close(a.done) })
	a.wg.Wait()

	a.clientsMu.Lock()
	for client := range a.clients {
		client.Close()
	}
	a.clients = make(map[*websocket.Conn]bool)
	a.clientsMu.Unlock()

	if a.server != nil {
		return a.server.Close()
	}
	return nil
}

var _ Adapter = (*WebSocketAdapter)(nil)
