package wsutil

import "testing"

func TestSafeSend_Delivers(t *testing.T) {
	ch := make(chan []byte, 1)
	if !SafeSend(ch, []byte("hi")) {
		t.Fatal("expected send to succeed")
	}
	if got := string(<-ch); got != "hi" {
		t.Errorf("expected hi, got %q", got)
	}
}

func TestSafeSend_FullChannel(t *testing.T) {
	ch := make(chan []byte, 1)
	ch <- []byte("first")
	if SafeSend(ch, []byte("second")) {
		t.Error("expected send on full channel to be skipped")
	}
}

func TestSafeSend_ClosedChannel(t *testing.T) {
	ch := make(chan []byte, 1)
	close(ch)
	if SafeSend(ch, []byte("x")) {
		t.Error("expected send on closed channel to report false")
	}
}
