package session

import (
	"github.com/opsgrid/dispatchsim/core/game"
	"github.com/opsgrid/dispatchsim/core/scoring"
)

// Events published on the bus. Hosts subscribe for rendering and coaching.

// Started is published when a session is created.
type Started struct {
	SessionID string
	Scenario  string
}

// PhaseChanged is published after a successful phase transition.
type PhaseChanged struct {
	SessionID string
	Phase     game.Phase
}

// Committed is published when the placement set is locked in.
type Committed struct {
	SessionID  string
	Placements int
}

// IncidentsSpawned is published after a tick that spawned incidents.
type IncidentsSpawned struct {
	SessionID string
	Count     int
	Elapsed   int
}

// Scored is published after a score computation.
type Scored struct {
	SessionID string
	Breakdown scoring.Breakdown
}

// Sink records session metrics. infra/metrics provides Prometheus and no-op
// implementations.
type Sink interface {
	SessionStarted()
	PlacementRejected()
	IncidentsSpawned(count int)
	FinalScore(score float64)
}
