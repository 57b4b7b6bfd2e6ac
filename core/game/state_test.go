package game

import (
	"errors"
	"reflect"
	"testing"

	"github.com/opsgrid/dispatchsim/core/model"
)

func testScenario() model.Scenario {
	return model.Scenario{
		ID: "test",
		Units: model.Units{
			PatrolCount:         4,
			EMSCount:            3,
			CoverageRadiusCells: 8,
		},
	}
}

func cell(lat, lon int) model.Cell { return model.Cell{LatIdx: lat, LonIdx: lon} }

// fill places 4 patrol and 3 EMS units on distinct cells.
func fill(t *testing.T, s State) State {
	t.Helper()
	var err error
	for i := 0; i < 4; i++ {
		if s, err = s.AddPlacement(cell(i, 0), model.UnitPatrol); err != nil {
			t.Fatalf("patrol %d: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		if s, err = s.AddPlacement(cell(i, 10), model.UnitEMS); err != nil {
			t.Fatalf("ems %d: %v", i, err)
		}
	}
	return s
}

func TestNewGame(t *testing.T) {
	s := New(testScenario())
	if s.Phase != PhaseBriefing {
		t.Fatalf("phase = %s", s.Phase)
	}
	if s.Capacity != 7 {
		t.Fatalf("capacity = %d", s.Capacity)
	}
	if len(s.Placements) != 0 || s.Committed {
		t.Fatal("new game not empty")
	}
}

func TestSetPhaseValidatesNameOnly(t *testing.T) {
	s := New(testScenario())
	// Arbitrary jumps between valid phases are permitted.
	s, err := s.SetPhase(PhaseDebrief)
	if err != nil {
		t.Fatalf("jump to DEBRIEF: %v", err)
	}
	if _, err = s.SetPhase(PhaseDeploy); err != nil {
		t.Fatalf("jump back to DEPLOY: %v", err)
	}
	_, err = s.SetPhase(Phase("LUNCH"))
	var verr model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAddPlacementRules(t *testing.T) {
	s := New(testScenario())

	if _, err := s.AddPlacement(cell(0, 0), model.UnitType("swat")); err == nil {
		t.Fatal("expected error for unknown unit type")
	}

	s, err := s.AddPlacement(cell(0, 0), model.UnitPatrol)
	if err != nil {
		t.Fatalf("first placement: %v", err)
	}
	if _, err := s.AddPlacement(cell(0, 0), model.UnitEMS); err == nil {
		t.Fatal("expected error for occupied cell")
	}

	// Exhaust the patrol quota.
	for i := 1; i < 4; i++ {
		if s, err = s.AddPlacement(cell(i, 0), model.UnitPatrol); err != nil {
			t.Fatalf("patrol %d: %v", i, err)
		}
	}
	_, err = s.AddPlacement(cell(9, 9), model.UnitPatrol)
	var rv RuleViolation
	if !errors.As(err, &rv) {
		t.Fatalf("expected RuleViolation for quota, got %v", err)
	}
}

func TestAddPlacementFull(t *testing.T) {
	s := fill(t, New(testScenario()))
	before := s

	_, err := s.AddPlacement(cell(99, 99), model.UnitEMS)
	var rv RuleViolation
	if !errors.As(err, &rv) {
		t.Fatalf("expected RuleViolation on full state, got %v", err)
	}
	if !reflect.DeepEqual(before, s) {
		t.Fatal("rejected placement mutated state")
	}
}

func TestRemovePlacement(t *testing.T) {
	s := New(testScenario())
	s, _ = s.AddPlacement(cell(1, 1), model.UnitPatrol)

	if _, err := s.RemovePlacement(cell(2, 2)); err == nil {
		t.Fatal("expected error removing empty cell")
	}
	s, err := s.RemovePlacement(cell(1, 1))
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(s.Placements) != 0 {
		t.Fatal("placement not removed")
	}
}

func TestCommitRules(t *testing.T) {
	s := New(testScenario())
	s, _ = s.SetPhase(PhaseDeploy)

	// Commit before the set is full.
	before := s
	_, err := s.Commit()
	var rv RuleViolation
	if !errors.As(err, &rv) {
		t.Fatalf("expected RuleViolation on incomplete commit, got %v", err)
	}
	if !reflect.DeepEqual(before, s) {
		t.Fatal("rejected commit mutated state")
	}

	// Commit outside DEPLOY.
	full := fill(t, New(testScenario()))
	if _, err := full.Commit(); err == nil {
		t.Fatal("expected error committing in BRIEFING")
	}

	full, _ = full.SetPhase(PhaseDeploy)
	full, err = full.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !full.Committed {
		t.Fatal("not committed")
	}

	// Double commit.
	before = full
	if _, err := full.Commit(); err == nil {
		t.Fatal("expected error on double commit")
	}
	if !reflect.DeepEqual(before, full) {
		t.Fatal("double commit mutated state")
	}

	// Mutation after commit.
	if _, err := full.AddPlacement(cell(50, 50), model.UnitEMS); err == nil {
		t.Fatal("expected error adding after commit")
	}
	if _, err := full.RemovePlacement(cell(0, 0)); err == nil {
		t.Fatal("expected error removing after commit")
	}
	if !reflect.DeepEqual(before, full) {
		t.Fatal("post-commit mutation changed state")
	}
}

func TestCopyOnWrite(t *testing.T) {
	s := New(testScenario())
	s1, _ := s.AddPlacement(cell(1, 1), model.UnitPatrol)
	s2, _ := s1.AddPlacement(cell(2, 2), model.UnitEMS)
	if len(s.Placements) != 0 || len(s1.Placements) != 1 || len(s2.Placements) != 2 {
		t.Fatalf("old handles mutated: %d/%d/%d", len(s.Placements), len(s1.Placements), len(s2.Placements))
	}
}

func TestNextPhase(t *testing.T) {
	p, ok := NextPhase(PhaseBriefing)
	if !ok || p != PhaseDeploy {
		t.Fatalf("next of BRIEFING = %s", p)
	}
	if _, ok := NextPhase(PhaseDebrief); ok {
		t.Fatal("DEBRIEF should have no successor")
	}
}
