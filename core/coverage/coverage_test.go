package coverage

import (
	"testing"

	"github.com/opsgrid/dispatchsim/core/model"
)

func cell(lat, lon int) model.Cell { return model.Cell{LatIdx: lat, LonIdx: lon} }

func TestSetSize(t *testing.T) {
	// A taxicab disk of radius r holds 2r^2+2r+1 cells.
	for r := 0; r <= 4; r++ {
		got := len(Set(cell(10, -20), r))
		want := 2*r*r + 2*r + 1
		if got != want {
			t.Fatalf("radius %d: %d cells, want %d", r, got, want)
		}
	}
}

func TestSetNegativeRadius(t *testing.T) {
	if n := len(Set(cell(0, 0), -1)); n != 0 {
		t.Fatalf("negative radius yielded %d cells", n)
	}
}

func TestSetSymmetry(t *testing.T) {
	a := cell(6050, -19543)
	others := []model.Cell{cell(6050, -19543), cell(6051, -19542), cell(6048, -19543), cell(6055, -19540)}
	for r := 0; r <= 3; r++ {
		for _, b := range others {
			if Set(a, r).Contains(b) != Set(b, r).Contains(a) {
				t.Fatalf("coverage not symmetric for %v/%v at r=%d", a, b, r)
			}
		}
	}
}

func TestSetMonotonicGrowth(t *testing.T) {
	a := cell(3, 7)
	for r := 0; r < 4; r++ {
		small, large := Set(a, r), Set(a, r+1)
		for c := range small {
			if !large.Contains(c) {
				t.Fatalf("cell %v in radius %d but not %d", c, r, r+1)
			}
		}
	}
}

func TestMapMultiplicity(t *testing.T) {
	placements := []model.Cell{cell(0, 0), cell(0, 2)}
	counts := Map(placements, 1)
	if counts[cell(0, 1)] != 2 {
		t.Fatalf("overlap cell count = %d, want 2", counts[cell(0, 1)])
	}
	if counts[cell(0, 0)] != 1 {
		t.Fatalf("origin count = %d, want 1", counts[cell(0, 0)])
	}
}

func TestCoveredIncidentsPartition(t *testing.T) {
	incidents := []model.Incident{
		{Cell: cell(100, -200)},
		{Cell: cell(100, -205)},
		{Cell: cell(101, -200)},
	}
	placements := []model.Cell{cell(100, -200)}
	part := CoveredIncidents(incidents, placements, 1)
	if part.Covered+part.Missed != len(incidents) {
		t.Fatalf("partition law broken: %d+%d != %d", part.Covered, part.Missed, len(incidents))
	}
	if part.Covered != 2 || part.Missed != 1 {
		t.Fatalf("covered=%d missed=%d, want 2/1", part.Covered, part.Missed)
	}
	if !part.MissedCells.Contains(cell(100, -205)) {
		t.Fatal("expected 100_-205 missed")
	}
}

func TestCoveredIncidentsEmpty(t *testing.T) {
	part := CoveredIncidents(nil, []model.Cell{cell(1, 1)}, 2)
	if part.Covered != 0 || part.Missed != 0 {
		t.Fatalf("empty incidents: covered=%d missed=%d", part.Covered, part.Missed)
	}
	part = CoveredIncidents([]model.Incident{{Cell: cell(5, 5)}}, nil, 2)
	if part.Covered != 0 || part.Missed != 1 {
		t.Fatalf("no placements: covered=%d missed=%d", part.Covered, part.Missed)
	}
}
