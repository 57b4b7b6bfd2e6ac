// Package game implements the phase state machine for a single training
// session. State values are immutable: every mutator returns a new State and
// leaves the receiver untouched, so a rejected operation is safe to retry.
package game

import (
	"fmt"

	"github.com/opsgrid/dispatchsim/core/model"
)

// Phase names the five session phases.
type Phase string

const (
	PhaseBriefing Phase = "BRIEFING"
	PhaseDeploy   Phase = "DEPLOY"
	PhaseCommit   Phase = "COMMIT"
	PhaseReveal   Phase = "REVEAL"
	PhaseDebrief  Phase = "DEBRIEF"
)

var phaseOrder = []Phase{PhaseBriefing, PhaseDeploy, PhaseCommit, PhaseReveal, PhaseDebrief}

// ParsePhase validates a phase name against the five known phases.
func ParsePhase(s string) (Phase, error) {
	for _, p := range phaseOrder {
		if Phase(s) == p {
			return p, nil
		}
	}
	return "", model.ValidationError{Msg: fmt.Sprintf("unknown phase %q", s)}
}

// NextPhase returns the phase following p in the canonical order, or false
// for DEBRIEF. SetPhase itself does not enforce this order.
func NextPhase(p Phase) (Phase, bool) {
	for i, cur := range phaseOrder {
		if cur == p && i+1 < len(phaseOrder) {
			return phaseOrder[i+1], true
		}
	}
	return "", false
}

// State is the immutable session state.
type State struct {
	Scenario   model.Scenario
	Phase      Phase
	Placements []model.Placement
	Capacity   int
	Committed  bool
}

// New starts a session at BRIEFING with no placements. Capacity is the sum of
// the scenario's unit quotas.
func New(sc model.Scenario) State {
	return State{
		Scenario: sc,
		Phase:    PhaseBriefing,
		Capacity: sc.Units.Total(),
	}
}

// SetPhase moves to the target phase. Only the phase name is validated;
// arbitrary jumps between valid phases are allowed.
func (s State) SetPhase(target Phase) (State, error) {
	if _, err := ParsePhase(string(target)); err != nil {
		return s, err
	}
	next := s.clone()
	next.Phase = target
	return next, nil
}

// AddPlacement appends a unit placement. Placement order is preserved for
// display; it has no effect on scoring.
func (s State) AddPlacement(cell model.Cell, unit model.UnitType) (State, error) {
	if !unit.Valid() {
		return s, model.ValidationError{Msg: fmt.Sprintf("unknown unit type %q", unit)}
	}
	if s.Committed {
		return s, RuleViolation{Msg: "cannot add placements after commit"}
	}
	if _, ok := s.UnitAt(cell); ok {
		return s, RuleViolation{Msg: fmt.Sprintf("cell %s already has a unit placed", cell)}
	}
	if len(s.Placements) >= s.Capacity {
		return s, RuleViolation{Msg: fmt.Sprintf("cannot place more than %d units", s.Capacity)}
	}
	if s.CountByType(unit) >= s.Scenario.Units.Quota(unit) {
		return s, RuleViolation{Msg: fmt.Sprintf("cannot place more than %d %s units", s.Scenario.Units.Quota(unit), unit)}
	}
	next := s.clone()
	next.Placements = append(next.Placements, model.Placement{Cell: cell, Unit: unit})
	return next, nil
}

// RemovePlacement removes the unit placed at cell.
func (s State) RemovePlacement(cell model.Cell) (State, error) {
	if s.Committed {
		return s, RuleViolation{Msg: "cannot remove placements after commit"}
	}
	idx := -1
	for i, p := range s.Placements {
		if p.Cell == cell {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, RuleViolation{Msg: fmt.Sprintf("cell %s has no unit to remove", cell)}
	}
	next := s.clone()
	next.Placements = append(next.Placements[:idx:idx], next.Placements[idx+1:]...)
	return next, nil
}

// Commit locks the placements in. It succeeds only in DEPLOY with a full
// placement set and at most once; the transition to REVEAL is a separate
// SetPhase call issued by the host.
func (s State) Commit() (State, error) {
	if s.Phase != PhaseDeploy {
		return s, RuleViolation{Msg: fmt.Sprintf("can only commit in DEPLOY phase, currently in %s", s.Phase)}
	}
	if len(s.Placements) != s.Capacity {
		return s, RuleViolation{Msg: fmt.Sprintf("must place exactly %d units before commit, have %d", s.Capacity, len(s.Placements))}
	}
	if s.Committed {
		return s, RuleViolation{Msg: "placements already committed"}
	}
	next := s.clone()
	next.Committed = true
	return next, nil
}

// UnitAt returns the unit type placed at cell, if any.
func (s State) UnitAt(cell model.Cell) (model.UnitType, bool) {
	for _, p := range s.Placements {
		if p.Cell == cell {
			return p.Unit, true
		}
	}
	return "", false
}

// CountByType returns how many units of the given type are placed.
func (s State) CountByType(unit model.UnitType) int {
	n := 0
	for _, p := range s.Placements {
		if p.Unit == unit {
			n++
		}
	}
	return n
}

// PlacementCells returns the placement cells in insertion order.
func (s State) PlacementCells() []model.Cell {
	cells := make([]model.Cell, len(s.Placements))
	for i, p := range s.Placements {
		cells[i] = p.Cell
	}
	return cells
}

func (s State) clone() State {
	next := s
	next.Placements = append([]model.Placement(nil), s.Placements...)
	return next
}
