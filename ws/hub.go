package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"bingo-tracker-server/auth"
	"bingo-tracker-server/config"
	"bingo-tracker-server/game"
)

// Hub maintains the set of active clients. Each client owns one game.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Config     *config.Config
	Scanner    game.Scanner
	Telemetry  game.TelemetrySink // may be nil
	Auth       *auth.Validator    // nil disables auth

	upgrader websocket.Upgrader
	done     chan struct{} // closed when Run returns
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, scanner game.Scanner, telemetry game.TelemetrySink, validator *auth.Validator) *Hub {
	h := &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Config:     cfg,
		Scanner:    scanner,
		Telemetry:  telemetry,
		Auth:       validator,
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	allowed := h.Config.AllowedOrigin
	if allowed == "" || allowed == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == allowed
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run stops every game and returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "ws", "clients", len(h.Clients))
			for client := range h.Clients {
				h.drop(client)
			}
			return
		case client := <-h.Register:
			h.Clients[client] = true
			slog.Info("client connected", "tag", "ws", "game", client.Game.ID, "clients", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				h.drop(client)
				slog.Info("client disconnected", "tag", "ws", "game", client.Game.ID, "clients", len(h.Clients))
			}
		}
	}
}

// drop removes client, ends its game and closes its send channel. The
// session is discarded with the connection.
func (h *Hub) drop(client *Client) {
	delete(h.Clients, client)
	g := client.Game
	go g.Submit(game.Action{Type: game.ActionDisconnect})
	close(client.Send)
}

// ServeWS handles WebSocket upgrade requests and creates a new Client with
// its own game.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	var userID string
	if h.Auth != nil {
		id, err := h.Auth.Authenticate(r)
		if err != nil {
			slog.Info("rejected websocket upgrade", "tag", "ws", "err", err)
			http.Error(w, "authorization required", http.StatusUnauthorized)
			return
		}
		userID = id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("upgrade failed", "tag", "ws", "err", err)
		return
	}

	send := make(chan []byte, 256)
	g := game.NewGame(uuid.NewString(), h.Config, send, h.Scanner)
	g.Telemetry = h.Telemetry

	client := &Client{
		Hub:    h,
		Conn:   conn,
		Send:   send,
		Game:   g,
		UserID: userID,
	}

	select {
	case h.Register <- client:
	case <-h.done:
		slog.Info("rejecting connection during shutdown", "tag", "ws")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go g.Run()
	go client.WritePump()
	go client.ReadPump()
}
