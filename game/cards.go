package game

import (
	"fmt"

	"github.com/google/uuid"

	"bingo-tracker-server/gameerrors"
)

// Card is one physical card being tracked. Numbers never change after the
// card is created; the winner flag and marked count are written only by
// Collection.RecomputeAll.
type Card struct {
	ID      string
	Title   string
	Numbers Grid

	isWinner     bool
	markedCount  int
	winningLines []Line
}

// IsWinner reports whether the card had a complete line at the last recompute.
func (c Card) IsWinner() bool {
	return c.isWinner
}

// MarkedCount returns the marked cells at the last recompute.
func (c Card) MarkedCount() int {
	return c.markedCount
}

// WinningLines returns the lines completed at the last recompute.
func (c Card) WinningLines() []Line {
	return c.winningLines
}

// NewCardID returns a fresh card identifier.
func NewCardID() string {
	return "CARD-" + uuid.NewString()
}

// Collection holds the session's cards in insertion order.
type Collection struct {
	cards []*Card
	newID func() string
}

// NewCollection returns an empty collection. newID may be nil to use NewCardID.
func NewCollection(newID func() string) *Collection {
	if newID == nil {
		newID = NewCardID
	}
	return &Collection{newID: newID}
}

// Add stores a copy of grid as a new card titled after the current size.
func (cc *Collection) Add(grid Grid) (Card, error) {
	if !grid.IsRectangular() {
		return Card{}, fmt.Errorf("%w: rows must be non-empty and of equal length", gameerrors.ErrMalformedGrid)
	}
	card := &Card{
		ID:      cc.newID(),
		Title:   fmt.Sprintf("Card #%d", len(cc.cards)+1),
		Numbers: grid.Clone(),
	}
	cc.cards = append(cc.cards, card)
	return card.snapshot(), nil
}

// Remove deletes the card with id; unknown ids are ignored.
func (cc *Collection) Remove(id string) {
	for i, c := range cc.cards {
		if c.ID == id {
			cc.cards = append(cc.cards[:i], cc.cards[i+1:]...)
			return
		}
	}
}

// Rename replaces a card's title. It returns false for unknown ids.
func (cc *Collection) Rename(id, title string) bool {
	for _, c := range cc.cards {
		if c.ID == id {
			c.Title = title
			return true
		}
	}
	return false
}

// RecomputeAll re-derives every card's winner flag and marked count from
// called, and returns how many cards are winners.
func (cc *Collection) RecomputeAll(called NumberSet) int {
	winners := 0
	for _, c := range cc.cards {
		c.winningLines = WinningLines(c.Numbers, called)
		c.isWinner = len(c.winningLines) > 0
		c.markedCount = CountMarked(c.Numbers, called)
		if c.isWinner {
			winners++
		}
	}
	return winners
}

// SortedView returns winners first; each group keeps insertion order.
func (cc *Collection) SortedView() []Card {
	out := make([]Card, 0, len(cc.cards))
	for _, c := range cc.cards {
		if c.isWinner {
			out = append(out, c.snapshot())
		}
	}
	for _, c := range cc.cards {
		if !c.isWinner {
			out = append(out, c.snapshot())
		}
	}
	return out
}

// Cards returns the cards in insertion order.
func (cc *Collection) Cards() []Card {
	out := make([]Card, len(cc.cards))
	for i, c := range cc.cards {
		out[i] = c.snapshot()
	}
	return out
}

// Get returns the card with id.
func (cc *Collection) Get(id string) (Card, bool) {
	for _, c := range cc.cards {
		if c.ID == id {
			return c.snapshot(), true
		}
	}
	return Card{}, false
}

// CountContaining returns how many cards have n on them.
func (cc *Collection) CountContaining(n int) int {
	count := 0
	for _, c := range cc.cards {
		if c.Numbers.Contains(n) {
			count++
		}
	}
	return count
}

// Len returns the number of cards.
func (cc *Collection) Len() int {
	return len(cc.cards)
}

// Clear removes every card.
func (cc *Collection) Clear() {
	cc.cards = nil
}

func (c *Card) snapshot() Card {
	out := *c
	out.Numbers = c.Numbers.Clone()
	out.winningLines = append([]Line(nil), c.winningLines...)
	return out
}
