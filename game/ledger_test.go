package game

import (
	"reflect"
	"testing"
)

func TestLedgerCall_RejectsDuplicates(t *testing.T) {
	l := NewLedger()
	if !l.Call(5) {
		t.Fatal("expected first call to succeed")
	}
	if l.Call(5) {
		t.Error("expected duplicate call to be rejected")
	}
	if l.Len() != 1 {
		t.Errorf("expected 1 call, got %d", l.Len())
	}
}

func TestLedgerUndoLast(t *testing.T) {
	l := NewLedger()
	if _, ok := l.UndoLast(); ok {
		t.Error("expected undo on empty ledger to report false")
	}
	l.Call(3)
	l.Call(8)
	n, ok := l.UndoLast()
	if !ok || n != 8 {
		t.Errorf("expected to undo 8, got %d ok=%v", n, ok)
	}
	if l.Has(8) {
		t.Error("8 should no longer be called")
	}
	if !l.Call(8) {
		t.Error("expected 8 to be callable again after undo")
	}
}

func TestLedgerRecent(t *testing.T) {
	l := NewLedger()
	for _, n := range []int{1, 2, 3, 4, 5, 6, 7} {
		l.Call(n)
	}
	if got := l.Recent(5); !reflect.DeepEqual(got, []int{7, 6, 5, 4, 3}) {
		t.Errorf("expected [7 6 5 4 3], got %v", got)
	}
	if got := l.Recent(20); len(got) != 7 {
		t.Errorf("expected all 7, got %v", got)
	}
	if got := l.Recent(0); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestLedgerClear(t *testing.T) {
	l := NewLedger()
	l.Call(1)
	l.Call(2)
	l.Clear()
	if l.Len() != 0 || l.Has(1) {
		t.Error("expected an empty ledger after Clear")
	}
	if got := l.Numbers(); len(got) != 0 {
		t.Errorf("expected no numbers, got %v", got)
	}
}

func TestLedgerNumbersIsCopy(t *testing.T) {
	l := NewLedger()
	l.Call(1)
	nums := l.Numbers()
	nums[0] = 42
	if l.Numbers()[0] != 1 {
		t.Error("Numbers should return a copy")
	}
}
