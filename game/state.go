package game

// LineView is the client-facing representation of a completed line.
type LineView struct {
	Kind  string `json:"kind"`
	Index int    `json:"index"`
}

// CardView is the client-facing representation of a card.
// Numbers uses null for the free space.
type CardView struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Numbers      Grid       `json:"numbers"`
	IsWinner     bool       `json:"isWinner"`
	MarkedCount  int        `json:"markedCount"`
	WinningLines []LineView `json:"winningLines,omitempty"`
}

// EditorView is the client-facing state of the add-card editor.
type EditorView struct {
	Mode      string     `json:"mode"`
	Draft     [][]string `json:"draft"`
	Scanning  bool       `json:"scanning"`
	ScanError string     `json:"scanError,omitempty"`
}

// StateMsg is the full session state sent after every action.
type StateMsg struct {
	Type          string     `json:"type"`
	Settings      Settings   `json:"settings"`
	Locked        bool       `json:"locked"`
	Cards         []CardView `json:"cards"`
	CalledNumbers []int      `json:"calledNumbers"`
	RecentCalls   []int      `json:"recentCalls"`
	WinnerCount   int        `json:"winnerCount"`
	Notice        string     `json:"notice,omitempty"`
	Editor        EditorView `json:"editor"`
}

// ErrorMsg is sent when an action is rejected.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// BuildCardView converts a card for the client.
func BuildCardView(c Card) CardView {
	view := CardView{
		ID:          c.ID,
		Title:       c.Title,
		Numbers:     c.Numbers,
		IsWinner:    c.IsWinner(),
		MarkedCount: c.MarkedCount(),
	}
	for _, l := range c.WinningLines() {
		view.WinningLines = append(view.WinningLines, LineView{Kind: l.Kind.String(), Index: l.Index})
	}
	return view
}

// BuildCardViews converts cards for the client, keeping their order.
func BuildCardViews(cards []Card) []CardView {
	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = BuildCardView(c)
	}
	return views
}

// Snapshot returns the session's state as sent to the client. Cards come
// winners first.
func (s *Session) Snapshot() StateMsg {
	cards := s.Cards()
	return StateMsg{
		Type:          "game_state",
		Settings:      s.settings,
		Locked:        len(cards) > 0,
		Cards:         BuildCardViews(cards),
		CalledNumbers: s.Called(),
		RecentCalls:   s.Recent(),
		WinnerCount:   s.winners,
		Notice:        s.notice,
		Editor: EditorView{
			Mode:      s.mode.String(),
			Draft:     s.Draft(),
			Scanning:  s.Scanning(),
			ScanError: s.scanError,
		},
	}
}
