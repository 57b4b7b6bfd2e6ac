// Package coverage implements the spatial coverage model: taxicab coverage
// sets around placed units and the covered/missed partition of an incident
// set. All functions are pure and total over well-formed input.
package coverage

import "github.com/opsgrid/dispatchsim/core/model"

// CellSet is a set of grid cells.
type CellSet map[model.Cell]struct{}

// Contains reports membership.
func (s CellSet) Contains(c model.Cell) bool {
	_, ok := s[c]
	return ok
}

// Set returns all cells within Manhattan distance r of c (a taxicab disk).
// A negative radius yields an empty set; radius zero yields the cell itself.
func Set(c model.Cell, r int) CellSet {
	if r < 0 {
		return CellSet{}
	}
	covered := make(CellSet, 2*r*r+2*r+1)
	for dLat := -r; dLat <= r; dLat++ {
		for dLon := -r; dLon <= r; dLon++ {
			if abs(dLat)+abs(dLon) <= r {
				covered[model.Cell{LatIdx: c.LatIdx + dLat, LonIdx: c.LonIdx + dLon}] = struct{}{}
			}
		}
	}
	return covered
}

// Union returns the union of the coverage sets of all placements.
func Union(placements []model.Cell, r int) CellSet {
	covered := make(CellSet)
	for _, p := range placements {
		for c := range Set(p, r) {
			covered[c] = struct{}{}
		}
	}
	return covered
}

// Map returns per-cell coverage multiplicity: how many placements cover each
// cell. Useful for density display; binary coverage checks use Union.
func Map(placements []model.Cell, r int) map[model.Cell]int {
	counts := make(map[model.Cell]int)
	for _, p := range placements {
		for c := range Set(p, r) {
			counts[c]++
		}
	}
	return counts
}

// Partition is the result of splitting an incident set into covered and
// missed. Covered+Missed always equals the full incident count.
type Partition struct {
	Covered      int
	Missed       int
	CoveredCells CellSet
	MissedCells  CellSet
}

// CoveredIncidents partitions incidents by whether their cell lies in the
// union of the placements' coverage sets.
func CoveredIncidents(incidents []model.Incident, placements []model.Cell, r int) Partition {
	part := Partition{CoveredCells: CellSet{}, MissedCells: CellSet{}}
	if len(incidents) == 0 {
		return part
	}
	covered := Union(placements, r)
	for _, inc := range incidents {
		if covered.Contains(inc.Cell) {
			part.Covered++
			part.CoveredCells[inc.Cell] = struct{}{}
		} else {
			part.Missed++
			part.MissedCells[inc.Cell] = struct{}{}
		}
	}
	return part
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
