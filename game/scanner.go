package game

import (
	"context"
	"time"
)

// ScanRequest asks a scanner to read a photographed card. A nil Dimensions
// lets the scanner infer the grid size.
type ScanRequest struct {
	Image      []byte
	MIMEType   string
	Dimensions *Dimensions
}

// ScanResult is a scanner's reading of a card.
type ScanResult struct {
	Rows int
	Cols int
	Grid Grid
}

// Scanner turns a card photo into a grid. Implementations live in the scan
// package so the game package never depends on a vision backend.
type Scanner interface {
	Scan(ctx context.Context, req ScanRequest) (ScanResult, error)
}

// ScanOutcome is how a scan request ended.
type ScanOutcome string

const (
	ScanSucceeded ScanOutcome = "success"
	ScanErrored   ScanOutcome = "error"
	ScanCancelled ScanOutcome = "cancelled"
)

// RoundSummary describes a round at the moment it was cleared or reset.
type RoundSummary struct {
	SessionID     string
	Reason        string
	CallCount     int
	CardCount     int
	WinnerCount   int
	CalledNumbers []int
}

// ScanEvent describes one finished scan request.
type ScanEvent struct {
	SessionID string
	Outcome   ScanOutcome
	Rows      int
	Cols      int
	Duration  time.Duration
}

// TelemetrySink records round and scan events. Optional; may be nil.
type TelemetrySink interface {
	RecordRound(ctx context.Context, s RoundSummary) error
	RecordScan(ctx context.Context, e ScanEvent) error
}
