package ws

import (
	"bytes"
	"encoding/json"

	"bingo-tracker-server/game"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// ConfigureMsg picks the grid shape for new cards. CenterFree is optional
// and falls back to the server default.
type ConfigureMsg struct {
	Type       string `json:"type"`
	Rows       int    `json:"rows"`
	Cols       int    `json:"cols"`
	CenterFree *bool  `json:"centerFree,omitempty"`
}

// AddCardMsg adds a card from a complete grid; null or 0 marks the free space.
type AddCardMsg struct {
	Type string    `json:"type"`
	Grid game.Grid `json:"grid"`
}

// DeleteCardMsg removes a card by id.
type DeleteCardMsg struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// RenameCardMsg sets a card's title.
type RenameCardMsg struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CallNumberMsg calls a number. Value is the text the user typed; a bare
// JSON number is accepted too.
type CallNumberMsg struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// ValueText returns Value as the raw input text.
func (m CallNumberMsg) ValueText() string {
	raw := bytes.TrimSpace(m.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// SetEditorModeMsg switches the add-card editor between "manual" and "scan".
type SetEditorModeMsg struct {
	Type string `json:"type"`
	Mode string `json:"mode"`
}

// SetDraftCellMsg edits one cell of the manual draft (0-based).
type SetDraftCellMsg struct {
	Type string `json:"type"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Text string `json:"text"`
}

// StartScanMsg uploads a card photo, base64 or as a data URL.
type StartScanMsg struct {
	Type     string `json:"type"`
	Image    string `json:"image"`
	MIMEType string `json:"mimeType,omitempty"`
}
