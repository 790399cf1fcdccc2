package storage

import "bingo-tracker-server/game"

// TelemetryStore is the persistence the server needs: a game.TelemetrySink
// with a lifecycle. Implementations can be swapped for testing.
type TelemetryStore interface {
	game.TelemetrySink

	// Lifecycle
	Close()
}

// Ensure *Store implements TelemetryStore at compile time.
var _ TelemetryStore = (*Store)(nil)
