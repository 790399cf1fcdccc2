package game

// Ledger is the ordered, duplicate-free record of called numbers.
// order and seen always hold the same numbers.
type Ledger struct {
	order []int
	seen  map[int]struct{}
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{seen: make(map[int]struct{})}
}

// Call appends n. It returns false and changes nothing when n was already called.
func (l *Ledger) Call(n int) bool {
	if _, ok := l.seen[n]; ok {
		return false
	}
	l.seen[n] = struct{}{}
	l.order = append(l.order, n)
	return true
}

// UndoLast removes the most recent call. ok is false on an empty ledger.
func (l *Ledger) UndoLast() (n int, ok bool) {
	if len(l.order) == 0 {
		return 0, false
	}
	n = l.order[len(l.order)-1]
	l.order = l.order[:len(l.order)-1]
	delete(l.seen, n)
	return n, true
}

// Clear forgets every call.
func (l *Ledger) Clear() {
	l.order = nil
	l.seen = make(map[int]struct{})
}

// Recent returns up to k calls, newest first.
func (l *Ledger) Recent(k int) []int {
	if k > len(l.order) {
		k = len(l.order)
	}
	if k <= 0 {
		return []int{}
	}
	out := make([]int, 0, k)
	for i := len(l.order) - 1; i >= len(l.order)-k; i-- {
		out = append(out, l.order[i])
	}
	return out
}

// Has reports whether n has been called.
func (l *Ledger) Has(n int) bool {
	_, ok := l.seen[n]
	return ok
}

// Len returns the number of calls.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Numbers returns the calls in call order.
func (l *Ledger) Numbers() []int {
	return append([]int{}, l.order...)
}
