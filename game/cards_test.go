package game

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"bingo-tracker-server/gameerrors"
)

// sequentialIDs returns an id generator producing id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestCollectionAdd_TitlesAndCopies(t *testing.T) {
	cc := NewCollection(sequentialIDs())
	g := Grid{{Num(1), Num(2)}, {Num(3), Num(4)}}

	c1, err := cc.Add(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c2, _ := cc.Add(g)

	if c1.Title != "Card #1" || c2.Title != "Card #2" {
		t.Errorf("unexpected titles %q %q", c1.Title, c2.Title)
	}
	if c1.ID == c2.ID {
		t.Error("expected distinct ids")
	}

	g[0][0] = Num(99)
	stored, _ := cc.Get(c1.ID)
	if stored.Numbers[0][0] != Num(1) {
		t.Error("collection should keep its own copy of the grid")
	}
}

func TestCollectionAdd_RejectsMalformed(t *testing.T) {
	cc := NewCollection(nil)
	_, err := cc.Add(Grid{{Num(1)}, {Num(2), Num(3)}})
	if !errors.Is(err, gameerrors.ErrMalformedGrid) {
		t.Errorf("expected ErrMalformedGrid, got %v", err)
	}
	if cc.Len() != 0 {
		t.Error("malformed grid should not be added")
	}
}

func TestNewCardID(t *testing.T) {
	id := NewCardID()
	if !strings.HasPrefix(id, "CARD-") {
		t.Errorf("expected CARD- prefix, got %q", id)
	}
	if id == NewCardID() {
		t.Error("expected unique ids")
	}
}

func TestCollectionRemoveAndRename(t *testing.T) {
	cc := NewCollection(sequentialIDs())
	c, _ := cc.Add(Grid{{Num(1)}})

	if cc.Rename("missing", "x") {
		t.Error("rename of unknown id should report false")
	}
	if !cc.Rename(c.ID, "Lucky") {
		t.Fatal("expected rename to succeed")
	}
	got, _ := cc.Get(c.ID)
	if got.Title != "Lucky" {
		t.Errorf("expected title Lucky, got %q", got.Title)
	}

	cc.Remove("missing")
	if cc.Len() != 1 {
		t.Error("removing an unknown id should be a no-op")
	}
	cc.Remove(c.ID)
	if cc.Len() != 0 {
		t.Error("expected card to be removed")
	}
}

func TestCollectionSortedView_WinnersFirstStable(t *testing.T) {
	cc := NewCollection(sequentialIDs())
	a, _ := cc.Add(Grid{{Num(1), Num(2)}, {Num(3), Num(4)}})
	b, _ := cc.Add(Grid{{Num(5), Num(6)}, {Num(7), Num(8)}})
	c, _ := cc.Add(Grid{{Num(9), Num(10)}, {Num(11), Num(12)}})
	d, _ := cc.Add(Grid{{Num(5), Num(9)}, {Num(13), Num(14)}})

	winners := cc.RecomputeAll(NewSet(5, 6, 9, 10))
	if winners != 3 {
		t.Fatalf("expected 3 winners, got %d", winners)
	}

	view := cc.SortedView()
	want := []string{b.ID, c.ID, d.ID, a.ID}
	for i, id := range want {
		if view[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, view[i].ID)
		}
	}
	if !view[0].IsWinner() || view[3].IsWinner() {
		t.Error("winner flags not carried into the view")
	}
}

func TestCollectionRecomputeAll_OneWinnerOfThree(t *testing.T) {
	cc := NewCollection(sequentialIDs())
	cc.Add(Grid{{Num(1), Num(2)}, {Num(3), Num(4)}})
	cc.Add(Grid{{Num(1), Num(5)}, {Num(6), Num(7)}})
	cc.Add(Grid{{Num(8), Num(9)}, {Num(1), Num(10)}})

	if got := cc.RecomputeAll(NewSet(1, 2)); got != 1 {
		t.Errorf("expected exactly one winner, got %d", got)
	}
	for _, c := range cc.Cards() {
		if c.MarkedCount() < 1 {
			t.Errorf("card %s: expected 1 marked cell, got %d", c.ID, c.MarkedCount())
		}
	}
	if got := cc.CountContaining(1); got != 3 {
		t.Errorf("expected 1 on all three cards, got %d", got)
	}
}
