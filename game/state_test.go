package game

import (
	"encoding/json"
	"testing"
)

func TestBuildCardView_WinningLines(t *testing.T) {
	s := newTestSession()
	s.AddCard(sampleCard())
	for _, n := range []int{7, 12, 19, 24} {
		s.CallNumber(n)
	}

	views := BuildCardViews(s.Cards())
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	v := views[0]
	if !v.IsWinner || v.MarkedCount != 5 {
		t.Errorf("expected winner with 5 marked, got winner=%v marked=%d", v.IsWinner, v.MarkedCount)
	}
	if len(v.WinningLines) != 1 || v.WinningLines[0].Kind != "row" || v.WinningLines[0].Index != 2 {
		t.Errorf("unexpected winning lines %v", v.WinningLines)
	}
}

func TestSnapshot_JSONShape(t *testing.T) {
	s := newTestSession()
	s.AddCard(sampleCard())
	s.CallNumber(7)
	s.CallNumber(12)

	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded["type"] != "game_state" {
		t.Errorf("expected type game_state, got %v", decoded["type"])
	}
	if decoded["locked"] != true {
		t.Error("expected locked while a card exists")
	}
	if decoded["notice"] != "Number 12 marked on 1 cards!" {
		t.Errorf("unexpected notice %v", decoded["notice"])
	}

	recent := decoded["recentCalls"].([]any)
	if len(recent) != 2 || recent[0].(float64) != 12 {
		t.Errorf("expected recent calls newest first, got %v", recent)
	}

	cards := decoded["cards"].([]any)
	card := cards[0].(map[string]any)
	if _, ok := card["winningLines"]; ok {
		t.Error("winningLines should be omitted for non-winners")
	}
	numbers := card["numbers"].([]any)
	center := numbers[2].([]any)[2]
	if center != nil {
		t.Errorf("expected free center encoded as null, got %v", center)
	}

	editor := decoded["editor"].(map[string]any)
	if editor["mode"] != "manual" || editor["scanning"] != false {
		t.Errorf("unexpected editor state %v", editor)
	}
}

func TestSnapshot_EmptySessionSlicesNotNull(t *testing.T) {
	s := newTestSession()
	data, _ := json.Marshal(s.Snapshot())

	var decoded map[string]any
	json.Unmarshal(data, &decoded)
	for _, key := range []string{"cards", "calledNumbers", "recentCalls"} {
		if _, ok := decoded[key].([]any); !ok {
			t.Errorf("expected %s to be an array, got %v", key, decoded[key])
		}
	}
}
