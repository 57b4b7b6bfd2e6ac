// Package session owns game and wave state for concurrently running training
// sessions. Each session has a single logical owner guarded by its own lock;
// the core computations themselves are pure, so the locks only serialize
// snapshot-and-replace updates.
package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/opsgrid/dispatchsim/core/chaos"
	"github.com/opsgrid/dispatchsim/core/game"
	"github.com/opsgrid/dispatchsim/core/model"
	"github.com/opsgrid/dispatchsim/core/scoring"
	"github.com/opsgrid/dispatchsim/infra/logger"
	"github.com/opsgrid/dispatchsim/internal/eventbus"
)

// ErrNotFound is returned for an unknown session id.
var ErrNotFound = errors.New("session not found")

// ErrTimeRewind is returned when a tick supplies a smaller elapsed time than
// a previous tick. Wave time never moves backward.
var ErrTimeRewind = errors.New("elapsed time moved backward")

type entry struct {
	mu    sync.Mutex
	game  game.State
	waves chaos.State
	rng   *rand.Rand
}

// Manager creates and owns sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	weights scoring.Weights
	bus     *eventbus.Bus
	sink    Sink
	log     logger.Logger
}

// NewManager wires a manager. bus, sink and log may be nil.
func NewManager(weights scoring.Weights, bus *eventbus.Bus, sink Sink, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Manager{
		sessions: make(map[string]*entry),
		weights:  weights,
		bus:      bus,
		sink:     sink,
		log:      log,
	}
}

// Start creates a session for a scenario, optionally driven by a chaos
// script, and returns its id. seed fixes the spawn RNG for reproducible runs.
func (m *Manager) Start(sc model.Scenario, script *chaos.Script, seed int64) (string, error) {
	if err := sc.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	e := &entry{
		game: game.New(sc),
		rng:  rand.New(rand.NewSource(seed)),
	}
	if script != nil {
		e.waves = chaos.NewState(script)
	}
	m.mu.Lock()
	m.sessions[id] = e
	m.mu.Unlock()

	if m.sink != nil {
		m.sink.SessionStarted()
	}
	m.publish(Started{SessionID: id, Scenario: sc.ID})
	m.log.Infof("session %s started for scenario %s", id, sc.ID)
	return id, nil
}

// Close removes a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

func (m *Manager) entry(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// Snapshot returns the current game state.
func (m *Manager) Snapshot(id string) (game.State, error) {
	e, err := m.entry(id)
	if err != nil {
		return game.State{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.game, nil
}

// SetPhase moves the session to the target phase.
func (m *Manager) SetPhase(id string, phase game.Phase) (game.State, error) {
	return m.mutate(id, func(s game.State) (game.State, error) {
		next, err := s.SetPhase(phase)
		if err == nil {
			m.publish(PhaseChanged{SessionID: id, Phase: phase})
		}
		return next, err
	})
}

// AddPlacement places a unit.
func (m *Manager) AddPlacement(id string, cell model.Cell, unit model.UnitType) (game.State, error) {
	return m.mutate(id, func(s game.State) (game.State, error) {
		next, err := s.AddPlacement(cell, unit)
		if err != nil && m.sink != nil {
			m.sink.PlacementRejected()
		}
		return next, err
	})
}

// RemovePlacement removes the unit placed at cell.
func (m *Manager) RemovePlacement(id string, cell model.Cell) (game.State, error) {
	return m.mutate(id, func(s game.State) (game.State, error) {
		next, err := s.RemovePlacement(cell)
		if err != nil && m.sink != nil {
			m.sink.PlacementRejected()
		}
		return next, err
	})
}

// Commit locks the placement set in.
func (m *Manager) Commit(id string) (game.State, error) {
	return m.mutate(id, func(s game.State) (game.State, error) {
		next, err := s.Commit()
		if err == nil {
			m.publish(Committed{SessionID: id, Placements: len(next.Placements)})
		}
		return next, err
	})
}

func (m *Manager) mutate(id string, fn func(game.State) (game.State, error)) (game.State, error) {
	e, err := m.entry(id)
	if err != nil {
		return game.State{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := fn(e.game)
	if err != nil {
		return e.game, err
	}
	e.game = next
	return next, nil
}

// Tick advances the session's wave engine to elapsedSeconds against the
// current placements. elapsedSeconds must be non-decreasing across calls.
func (m *Manager) Tick(id string, elapsedSeconds int) (chaos.Summary, error) {
	e, err := m.entry(id)
	if err != nil {
		return chaos.Summary{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if elapsedSeconds < e.waves.Elapsed {
		return e.waves.Summary(), fmt.Errorf("%w: %d < %d", ErrTimeRewind, elapsedSeconds, e.waves.Elapsed)
	}
	before := len(e.waves.Spawned)
	e.waves = e.waves.Update(elapsedSeconds, e.game.PlacementCells(), e.game.Scenario.Units.CoverageRadiusCells, e.rng)
	spawned := len(e.waves.Spawned) - before
	if spawned > 0 {
		if m.sink != nil {
			m.sink.IncidentsSpawned(spawned)
		}
		m.publish(IncidentsSpawned{SessionID: id, Count: spawned, Elapsed: elapsedSeconds})
		m.log.Debugw("incidents spawned", map[string]any{
			"session": id,
			"count":   spawned,
			"elapsed": elapsedSeconds,
		})
	}
	return e.waves.Summary(), nil
}

// SpawnedIncidents returns all incidents the wave engine has spawned so far.
func (m *Manager) SpawnedIncidents(id string) ([]model.Incident, error) {
	e, err := m.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Incident(nil), e.waves.Spawned...), nil
}

// Score computes the breakdown for the session's placements. When a chaos
// script drives the session, the spawned incidents are the ground truth;
// otherwise the scenario's next-hour truth is used.
func (m *Manager) Score(id string) (scoring.Breakdown, error) {
	e, err := m.entry(id)
	if err != nil {
		return scoring.Breakdown{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	sc := e.game.Scenario
	if e.waves.Script() != nil {
		sc.Truth = model.Truth{NextHourIncidents: e.waves.Spawned}
	}
	b := scoring.Score(e.game.PlacementCells(), sc, sc.Units.CoverageRadiusCells, m.weights)
	if m.sink != nil {
		m.sink.FinalScore(b.FinalScore)
	}
	m.publish(Scored{SessionID: id, Breakdown: b})
	return b, nil
}

// CompareBaselines reports the session's lift over the scenario baselines.
func (m *Manager) CompareBaselines(id string) (scoring.BaselineComparison, error) {
	e, err := m.entry(id)
	if err != nil {
		return scoring.BaselineComparison{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	sc := e.game.Scenario
	return scoring.CompareBaselines(e.game.PlacementCells(), sc, sc.Units.CoverageRadiusCells), nil
}

func (m *Manager) publish(e eventbus.Event) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}
