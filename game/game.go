package game

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"bingo-tracker-server/config"
	"bingo-tracker-server/gameerrors"
	"bingo-tracker-server/wsutil"
)

// ActionType enumerates the kinds of actions a game can process.
type ActionType int

const (
	ActionConfigure ActionType = iota
	ActionAddCard
	ActionDeleteCard
	ActionRenameCard
	ActionCallNumber
	ActionUndoLastCall
	ActionClearRound
	ActionFullReset
	ActionSetEditorMode
	ActionSetDraftCell
	ActionCommitDraft
	ActionResetDraft
	ActionStartScan
	ActionCancelScan
	ActionScanResolved // internal: a scanner goroutine finished
	ActionDisconnect
)

// Action is a command sent into the game's action channel. Only the fields
// relevant to Type are read.
type Action struct {
	Type ActionType

	Rows       int  // Configure
	Cols       int  // Configure
	CenterFree bool // Configure

	Grid   Grid   // AddCard
	CardID string // DeleteCard, RenameCard
	Title  string // RenameCard
	Value  string // CallNumber: raw user text

	Mode EditorMode // SetEditorMode
	Row  int        // SetDraftCell, 0-based
	Col  int        // SetDraftCell, 0-based
	Text string     // SetDraftCell

	Image    []byte // StartScan
	MIMEType string // StartScan

	Ticket uint64     // ScanResolved
	Result ScanResult // ScanResolved
	Err    error      // ScanResolved
}

const telemetryTimeout = 5 * time.Second

// Game runs one session. All access to Session happens on the Run goroutine.
type Game struct {
	ID        string
	Session   *Session
	Config    *config.Config
	Scanner   Scanner
	Telemetry TelemetrySink
	Send      chan []byte

	Actions chan Action
	Done    chan struct{}

	scanCancel  context.CancelFunc
	scanStarted time.Time
}

// NewGame creates a game for one client. scanner may be nil, in which case
// scan requests are rejected.
func NewGame(id string, cfg *config.Config, send chan []byte, scanner Scanner) *Game {
	return &Game{
		ID:      id,
		Session: NewSession(SettingsFromConfig(cfg), LimitsFromConfig(cfg), nil),
		Config:  cfg,
		Scanner: scanner,
		Send:    send,
		Actions: make(chan Action, 16),
		Done:    make(chan struct{}),
	}
}

// Run is the main game loop. It processes actions sequentially and sends
// the resulting state after each one. It should be run as a goroutine.
func (g *Game) Run() {
	defer close(g.Done)
	defer g.stopScan()

	g.broadcastState()
	for {
		action, ok := <-g.Actions
		if !ok || action.Type == ActionDisconnect {
			return
		}
		if g.handle(action) {
			g.broadcastState()
		}
	}
}

// Submit queues a for the game loop, waiting for room in the channel. It
// returns ErrSessionClosed once the game has stopped.
func (g *Game) Submit(a Action) error {
	select {
	case <-g.Done:
		return gameerrors.ErrSessionClosed
	default:
	}
	select {
	case g.Actions <- a:
		return nil
	case <-g.Done:
		return gameerrors.ErrSessionClosed
	}
}

// handle applies one action and reports whether state should be re-sent.
func (g *Game) handle(a Action) bool {
	s := g.Session
	switch a.Type {
	case ActionConfigure:
		return g.check(s.Configure(a.Rows, a.Cols, a.CenterFree))
	case ActionAddCard:
		_, err := s.AddCard(a.Grid)
		return g.check(err)
	case ActionDeleteCard:
		s.DeleteCard(a.CardID)
	case ActionRenameCard:
		return g.check(s.RenameCard(a.CardID, a.Title))
	case ActionCallNumber:
		_, err := s.CallInput(a.Value)
		return g.check(err)
	case ActionUndoLastCall:
		s.UndoLastCall()
	case ActionClearRound:
		g.recordRound("clear_round")
		s.ClearRound()
	case ActionFullReset:
		g.recordRound("full_reset")
		s.FullReset()
	case ActionSetEditorMode:
		s.SetEditorMode(a.Mode)
	case ActionSetDraftCell:
		return g.check(s.SetDraftCell(a.Row, a.Col, a.Text))
	case ActionCommitDraft:
		_, err := s.CommitDraft()
		return g.check(err)
	case ActionResetDraft:
		s.ResetDraft()
	case ActionStartScan:
		return g.handleStartScan(a.Image, a.MIMEType)
	case ActionCancelScan:
		return g.handleCancelScan()
	case ActionScanResolved:
		return g.handleScanResolved(a.Ticket, a.Result, a.Err)
	default:
		slog.Warn("unknown action", "tag", "game", "game", g.ID, "type", int(a.Type))
		return false
	}
	return true
}

// check sends err to the client; rejected actions leave state unchanged so
// nothing needs re-sending.
func (g *Game) check(err error) bool {
	if err != nil {
		g.sendError(describe(err))
		return false
	}
	return true
}

func (g *Game) handleStartScan(image []byte, mimeType string) bool {
	if g.Scanner == nil {
		g.sendError("Scanning is not available on this server.")
		return false
	}
	if len(image) == 0 {
		g.sendError("Missing image.")
		return false
	}
	if limit := g.Config.MaxImageBytes; limit > 0 && len(image) > limit {
		g.sendError("Image is too large.")
		return false
	}

	g.stopScan()
	ticket := g.Session.BeginScan()
	dims := g.Session.Settings().Dimensions

	ctx, cancel := context.WithTimeout(context.Background(), g.Config.ScanTimeout())
	g.scanCancel = cancel
	g.scanStarted = time.Now()

	scanner := g.Scanner
	go func() {
		res, err := scanner.Scan(ctx, ScanRequest{Image: image, MIMEType: mimeType, Dimensions: &dims})
		select {
		case g.Actions <- Action{Type: ActionScanResolved, Ticket: ticket, Result: res, Err: err}:
		case <-g.Done:
		}
	}()
	slog.Debug("scan started", "tag", "game", "game", g.ID, "ticket", ticket, "bytes", len(image))
	return true
}

func (g *Game) handleCancelScan() bool {
	if err := g.Session.CancelScan(); err != nil {
		// Nothing in flight; the result may already have been applied.
		return false
	}
	g.recordScan(ScanCancelled, Dimensions{})
	g.stopScan()
	return true
}

func (g *Game) handleScanResolved(ticket uint64, res ScanResult, err error) bool {
	if !g.Session.ResolveScan(ticket, res, err) {
		slog.Debug("dropping stale scan result", "tag", "game", "game", g.ID, "ticket", ticket)
		return false
	}
	g.stopScan()
	if err != nil {
		slog.Info("scan failed", "tag", "game", "game", g.ID, "err", err)
		g.recordScan(ScanErrored, Dimensions{})
	} else {
		g.recordScan(ScanSucceeded, Dimensions{Rows: res.Rows, Cols: res.Cols})
	}
	return true
}

// stopScan releases the context of the scan in flight, if any.
func (g *Game) stopScan() {
	if g.scanCancel != nil {
		g.scanCancel()
		g.scanCancel = nil
	}
}

func (g *Game) recordRound(reason string) {
	if g.Telemetry == nil || g.Session.ledger.Len() == 0 {
		return
	}
	summary := g.Session.RoundSummary(reason)
	summary.SessionID = g.ID
	g.record(func(ctx context.Context, sink TelemetrySink) error {
		return sink.RecordRound(ctx, summary)
	})
}

func (g *Game) recordScan(outcome ScanOutcome, dims Dimensions) {
	if g.Telemetry == nil {
		return
	}
	event := ScanEvent{
		SessionID: g.ID,
		Outcome:   outcome,
		Rows:      dims.Rows,
		Cols:      dims.Cols,
		Duration:  time.Since(g.scanStarted),
	}
	g.record(func(ctx context.Context, sink TelemetrySink) error {
		return sink.RecordScan(ctx, event)
	})
}

// record runs fn off the game loop; failures are only logged.
func (g *Game) record(fn func(ctx context.Context, sink TelemetrySink) error) {
	sink := g.Telemetry
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryTimeout)
		defer cancel()
		if err := fn(ctx, sink); err != nil {
			slog.Warn("recording telemetry", "tag", "game", "game", g.ID, "err", err)
		}
	}()
}

func (g *Game) sendError(message string) {
	if g.Send == nil {
		return
	}
	data, _ := json.Marshal(ErrorMsg{Type: "error", Message: message})
	wsutil.SafeSend(g.Send, data)
}

func (g *Game) broadcastState() {
	if g.Send == nil {
		return
	}
	data, err := json.Marshal(g.Session.Snapshot())
	if err != nil {
		slog.Error("marshaling game state", "tag", "game", "err", err)
		return
	}
	wsutil.SafeSend(g.Send, data)
}

// describe turns a command error into text for the client.
func describe(err error) string {
	if msg, ok := gameerrors.UserMessage(err); ok {
		return msg
	}
	msg := err.Error()
	if msg == "" {
		return "Action rejected."
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
