package game

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"bingo-tracker-server/config"
	"bingo-tracker-server/gameerrors"
)

// Settings is the grid shape new cards are created with.
type Settings struct {
	Dimensions Dimensions `json:"dimensions"`
	CenterFree bool       `json:"centerFree"`
}

// Limits bounds what a user may configure or enter.
type Limits struct {
	MinGridSize      int
	MaxGridSize      int
	MaxTitleLength   int
	RecentCallsLimit int
}

// LimitsFromConfig extracts session limits from the server config.
func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		MinGridSize:      cfg.MinGridSize,
		MaxGridSize:      cfg.MaxGridSize,
		MaxTitleLength:   cfg.MaxTitleLength,
		RecentCallsLimit: cfg.RecentCallsLimit,
	}
}

// SettingsFromConfig returns the settings a new session starts with.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Dimensions: Dimensions{Rows: cfg.DefaultRows, Cols: cfg.DefaultCols},
		CenterFree: cfg.CenterFree,
	}
}

// EditorMode is the add-card editor's active tab.
type EditorMode int

const (
	ModeManual EditorMode = iota
	ModeScan
)

// String returns the protocol string for an EditorMode.
func (m EditorMode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeScan:
		return "scan"
	default:
		return "unknown"
	}
}

// ParseEditorMode parses the protocol string for an EditorMode.
func ParseEditorMode(s string) (EditorMode, bool) {
	switch s {
	case "manual":
		return ModeManual, true
	case "scan":
		return ModeScan, true
	default:
		return ModeManual, false
	}
}

// Session is one user's tracking state. It is not safe for concurrent use;
// Game serializes access to it. Every command that changes the ledger or
// the card set recomputes derived card state before returning.
type Session struct {
	settings Settings
	limits   Limits
	ledger   *Ledger
	cards    *Collection
	winners  int
	notice   string

	mode       EditorMode
	draft      [][]string
	scanTicket uint64 // ticket of the scan in flight, 0 when idle
	lastTicket uint64
	scanError  string
}

// NewSession returns an empty session. newID may be nil.
func NewSession(settings Settings, limits Limits, newID func() string) *Session {
	s := &Session{
		settings: settings,
		limits:   limits,
		ledger:   NewLedger(),
		cards:    NewCollection(newID),
	}
	s.ResetDraft()
	return s
}

// Settings returns the current settings.
func (s *Session) Settings() Settings {
	return s.settings
}

// Configure changes the grid shape for new cards. It is rejected while any
// card exists.
func (s *Session) Configure(rows, cols int, centerFree bool) error {
	if s.cards.Len() > 0 {
		return gameerrors.ErrConfigLocked
	}
	dims := Dimensions{Rows: rows, Cols: cols}
	if err := dims.Validate(s.limits.MinGridSize, s.limits.MaxGridSize); err != nil {
		return err
	}
	s.settings = Settings{Dimensions: dims, CenterFree: centerFree}
	s.ResetDraft()
	return nil
}

// AddCard adds a card and brings it up to date with the calls so far.
func (s *Session) AddCard(grid Grid) (Card, error) {
	if grid.IsRectangular() {
		if err := grid.Dimensions().Validate(s.limits.MinGridSize, s.limits.MaxGridSize); err != nil {
			return Card{}, err
		}
	}
	card, err := s.cards.Add(grid)
	if err != nil {
		return Card{}, err
	}
	s.recomputeAll()
	card, _ = s.cards.Get(card.ID)
	return card, nil
}

// DeleteCard removes a card; unknown ids are ignored.
func (s *Session) DeleteCard(id string) {
	s.cards.Remove(id)
	s.recomputeAll()
}

// RenameCard sets a card's title as typed, including the empty string, so a
// live edit box can send every keystroke. Unknown ids are ignored.
func (s *Session) RenameCard(id, title string) error {
	if !utf8.ValidString(title) {
		return gameerrors.ErrInvalidTitle
	}
	if limit := s.limits.MaxTitleLength; limit > 0 && utf8.RuneCountInString(title) > limit {
		title = string([]rune(title)[:limit])
	}
	s.cards.Rename(id, title)
	return nil
}

// CallInput parses user text and calls the number.
func (s *Session) CallInput(text string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a number", gameerrors.ErrInvalidNumber, text)
	}
	return s.CallNumber(n)
}

// CallNumber records n. Calling a number twice is not an error: state is
// left alone and the returned notice says so.
func (s *Session) CallNumber(n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("%w: %d", gameerrors.ErrInvalidNumber, n)
	}
	if !s.ledger.Call(n) {
		s.notice = fmt.Sprintf("Number %d was already called!", n)
		return s.notice, nil
	}
	s.recomputeAll()
	s.notice = fmt.Sprintf("Number %d marked on %d cards!", n, s.cards.CountContaining(n))
	return s.notice, nil
}

// UndoLastCall removes the most recent call; with no calls it only sets a
// notice.
func (s *Session) UndoLastCall() string {
	n, ok := s.ledger.UndoLast()
	if !ok {
		s.notice = "No numbers to undo"
		return s.notice
	}
	s.recomputeAll()
	s.notice = fmt.Sprintf("Undid number %d", n)
	return s.notice
}

// ClearRound forgets every call but keeps the cards.
func (s *Session) ClearRound() string {
	s.ledger.Clear()
	s.recomputeAll()
	s.notice = "Board cleared! Cards kept."
	return s.notice
}

// FullReset forgets every call and every card.
func (s *Session) FullReset() {
	s.ledger.Clear()
	s.cards.Clear()
	s.recomputeAll()
	s.notice = ""
}

// RoundSummary describes the current round; reason says why it is ending.
func (s *Session) RoundSummary(reason string) RoundSummary {
	return RoundSummary{
		Reason:        reason,
		CallCount:     s.ledger.Len(),
		CardCount:     s.cards.Len(),
		WinnerCount:   s.winners,
		CalledNumbers: s.ledger.Numbers(),
	}
}

// Called returns the calls in call order.
func (s *Session) Called() []int {
	return s.ledger.Numbers()
}

// Recent returns the latest calls, newest first.
func (s *Session) Recent() []int {
	return s.ledger.Recent(s.limits.RecentCallsLimit)
}

// WinnerCount returns the number of winning cards.
func (s *Session) WinnerCount() int {
	return s.winners
}

// Cards returns the cards winners first.
func (s *Session) Cards() []Card {
	return s.cards.SortedView()
}

// Card returns a single card.
func (s *Session) Card(id string) (Card, bool) {
	return s.cards.Get(id)
}

// Notice returns the last informational message.
func (s *Session) Notice() string {
	return s.notice
}

func (s *Session) recomputeAll() {
	s.winners = s.cards.RecomputeAll(s.ledger)
}

// --- Add-card editor ---

// EditorMode returns the active editor tab.
func (s *Session) EditorMode() EditorMode {
	return s.mode
}

// SetEditorMode switches tabs. Switching never touches the draft or a scan
// in flight.
func (s *Session) SetEditorMode(m EditorMode) {
	s.mode = m
}

// Draft returns a copy of the editor text.
func (s *Session) Draft() [][]string {
	out := make([][]string, len(s.draft))
	for r, row := range s.draft {
		out[r] = append([]string(nil), row...)
	}
	return out
}

// SetDraftCell edits one editor cell.
func (s *Session) SetDraftCell(row, col int, text string) error {
	if row < 0 || row >= len(s.draft) || col < 0 || col >= len(s.draft[row]) {
		return fmt.Errorf("%w: row %d, col %d is outside the grid", gameerrors.ErrInvalidCell, row+1, col+1)
	}
	s.draft[row][col] = text
	return nil
}

// ResetDraft replaces the editor text with a blank grid for the current
// settings.
func (s *Session) ResetDraft() {
	s.draft = BlankDraft(s.settings.Dimensions, s.settings.CenterFree)
	s.mode = ModeManual
}

// CommitDraft turns the editor text into a card. A bad cell rejects the
// whole draft and leaves it for the user to fix.
func (s *Session) CommitDraft() (Card, error) {
	grid, err := ParseDraft(s.draft)
	if err != nil {
		return Card{}, err
	}
	card, err := s.AddCard(grid)
	if err != nil {
		return Card{}, err
	}
	s.ResetDraft()
	return card, nil
}

// --- Scan requests ---

// BeginScan starts a scan and returns its ticket. A previous scan still in
// flight becomes stale.
func (s *Session) BeginScan() uint64 {
	s.lastTicket++
	s.scanTicket = s.lastTicket
	s.scanError = ""
	s.mode = ModeScan
	return s.scanTicket
}

// CancelScan discards the scan in flight so its result is ignored when it
// arrives.
func (s *Session) CancelScan() error {
	if s.scanTicket == 0 {
		return gameerrors.ErrNoScanInFlight
	}
	s.scanTicket = 0
	s.scanError = ""
	return nil
}

// Scanning reports whether a scan is in flight.
func (s *Session) Scanning() bool {
	return s.scanTicket != 0
}

// ScanError returns the message of the last failed scan.
func (s *Session) ScanError() string {
	return s.scanError
}

// ResolveScan applies a scan result if ticket is still current and reports
// whether it did. On success the grid is coerced to the configured shape,
// replaces the draft, and the editor returns to manual review.
func (s *Session) ResolveScan(ticket uint64, result ScanResult, err error) bool {
	if ticket == 0 || ticket != s.scanTicket {
		return false
	}
	s.scanTicket = 0
	if err != nil {
		if msg, ok := gameerrors.UserMessage(err); ok {
			s.scanError = msg
		} else {
			s.scanError = fmt.Sprintf("Could not identify grid: %v. Ensure the photo is clear, well-lit, and contains only the Bingo card.", err)
		}
		return true
	}
	grid := NormalizeGrid(result.Grid, s.settings.Dimensions)
	s.draft = DraftFromGrid(grid)
	s.scanError = ""
	s.mode = ModeManual
	return true
}
