package ws

import (
	"encoding/json"
	"testing"
)

func TestInboundEnvelope_KeepsRaw(t *testing.T) {
	data := []byte(`{"type":"rename_card","id":"c1","title":"Lucky"}`)
	var env InboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Type != "rename_card" {
		t.Errorf("expected rename_card, got %q", env.Type)
	}
	var msg RenameCardMsg
	if err := json.Unmarshal(env.Raw, &msg); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if msg.ID != "c1" || msg.Title != "Lucky" {
		t.Errorf("unexpected payload %+v", msg)
	}
}

func TestInboundEnvelope_Invalid(t *testing.T) {
	var env InboundEnvelope
	if err := json.Unmarshal([]byte(`not json`), &env); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestCallNumberMsg_ValueText(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"value":"42"}`, "42"},
		{`{"value":42}`, "42"},
		{`{"value":" 7 "}`, " 7 "},
		{`{"value":"abc"}`, "abc"},
		{`{"value":null}`, ""},
		{`{}`, ""},
	}
	for _, tc := range cases {
		var msg CallNumberMsg
		if err := json.Unmarshal([]byte(tc.raw), &msg); err != nil {
			t.Fatalf("decode %s: %v", tc.raw, err)
		}
		if got := msg.ValueText(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.raw, tc.want, got)
		}
	}
}

func TestAddCardMsg_FreeCells(t *testing.T) {
	var msg AddCardMsg
	if err := json.Unmarshal([]byte(`{"type":"add_card","grid":[[1,null],[0,4]]}`), &msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !msg.Grid[0][1].Free || !msg.Grid[1][0].Free {
		t.Errorf("expected null and 0 to decode as free, got %v", msg.Grid)
	}
	if msg.Grid[1][1].Free || msg.Grid[1][1].Number != 4 {
		t.Errorf("expected 4, got %v", msg.Grid[1][1])
	}
}
