package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"bingo-tracker-server/game"
	"bingo-tracker-server/scan"
	"bingo-tracker-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Room for a message's JSON around a base64 image.
	envelopeOverhead = 4096
)

// Client is a middleman between the websocket connection and its game.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	Game   *game.Game
	UserID string // empty when auth is disabled
}

// maxMessageSize is the largest frame accepted from the peer. start_scan
// carries the whole photo, so the limit follows MaxImageBytes.
func (c *Client) maxMessageSize() int64 {
	return int64(c.Hub.Config.MaxImageBytes)*4/3 + envelopeOverhead
}

// ReadPump pumps messages from the websocket connection to the game.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.maxMessageSize())
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("read error", "tag", "ws", "game", c.Game.ID, "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	switch envelope.Type {
	case "configure":
		c.handleConfigure(envelope.Raw)
	case "add_card":
		var msg AddCardMsg
		if c.decode(envelope, &msg) {
			c.dispatch(game.Action{Type: game.ActionAddCard, Grid: msg.Grid})
		}
	case "delete_card":
		var msg DeleteCardMsg
		if c.decode(envelope, &msg) {
			c.dispatch(game.Action{Type: game.ActionDeleteCard, CardID: msg.ID})
		}
	case "rename_card":
		var msg RenameCardMsg
		if c.decode(envelope, &msg) {
			c.dispatch(game.Action{Type: game.ActionRenameCard, CardID: msg.ID, Title: msg.Title})
		}
	case "call_number":
		var msg CallNumberMsg
		if c.decode(envelope, &msg) {
			c.dispatch(game.Action{Type: game.ActionCallNumber, Value: msg.ValueText()})
		}
	case "undo_last_call":
		c.dispatch(game.Action{Type: game.ActionUndoLastCall})
	case "clear_round":
		c.dispatch(game.Action{Type: game.ActionClearRound})
	case "full_reset":
		c.dispatch(game.Action{Type: game.ActionFullReset})
	case "set_editor_mode":
		c.handleSetEditorMode(envelope.Raw)
	case "set_draft_cell":
		var msg SetDraftCellMsg
		if c.decode(envelope, &msg) {
			c.dispatch(game.Action{Type: game.ActionSetDraftCell, Row: msg.Row, Col: msg.Col, Text: msg.Text})
		}
	case "commit_draft":
		c.dispatch(game.Action{Type: game.ActionCommitDraft})
	case "reset_draft":
		c.dispatch(game.Action{Type: game.ActionResetDraft})
	case "start_scan":
		c.handleStartScan(envelope.Raw)
	case "cancel_scan":
		c.dispatch(game.Action{Type: game.ActionCancelScan})
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

// decode unmarshals the envelope payload into msg, reporting failures to
// the client.
func (c *Client) decode(envelope InboundEnvelope, msg any) bool {
	if err := json.Unmarshal(envelope.Raw, msg); err != nil {
		c.sendError("Invalid " + envelope.Type + " message.")
		return false
	}
	return true
}

func (c *Client) handleConfigure(raw json.RawMessage) {
	var msg ConfigureMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid configure message.")
		return
	}
	centerFree := c.Hub.Config.CenterFree
	if msg.CenterFree != nil {
		centerFree = *msg.CenterFree
	}
	c.dispatch(game.Action{
		Type:       game.ActionConfigure,
		Rows:       msg.Rows,
		Cols:       msg.Cols,
		CenterFree: centerFree,
	})
}

func (c *Client) handleSetEditorMode(raw json.RawMessage) {
	var msg SetEditorModeMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid set_editor_mode message.")
		return
	}
	mode, ok := game.ParseEditorMode(msg.Mode)
	if !ok {
		c.sendError("Unknown editor mode: " + msg.Mode)
		return
	}
	c.dispatch(game.Action{Type: game.ActionSetEditorMode, Mode: mode})
}

func (c *Client) handleStartScan(raw json.RawMessage) {
	var msg StartScanMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid start_scan message.")
		return
	}
	image, mimeType, err := scan.DecodeImage(msg.Image)
	if err != nil {
		c.sendError("Image is not valid base64.")
		return
	}
	if msg.MIMEType != "" {
		mimeType = msg.MIMEType
	}
	c.dispatch(game.Action{Type: game.ActionStartScan, Image: image, MIMEType: mimeType})
}

// dispatch hands a to the game loop. Actions for a game that already
// stopped are dropped.
func (c *Client) dispatch(a game.Action) {
	if err := c.Game.Submit(a); err != nil {
		slog.Debug("dropping action", "tag", "ws", "game", c.Game.ID, "err", err)
	}
}

func (c *Client) sendError(message string) {
	data, _ := json.Marshal(game.ErrorMsg{Type: "error", Message: message})
	wsutil.SafeSend(c.Send, data)
}
