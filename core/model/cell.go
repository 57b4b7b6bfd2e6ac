package model

import (
	"fmt"
	"strconv"
	"strings"
)

// CellStepDegrees is the fixed grid step used to derive cell indices from
// geographic coordinates.
const CellStepDegrees = 0.005

// Cell identifies one grid cell by its integer index pair. Indices are
// obtained by flooring coordinates by the grid step, so they may be negative.
type Cell struct {
	LatIdx int
	LonIdx int
}

// ParseCell parses a "latIdx_lonIdx" identifier such as "6050_-19543".
// Malformed identifiers return a ValidationError and are never coerced.
func ParseCell(id string) (Cell, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 2 {
		return Cell{}, ValidationError{Msg: fmt.Sprintf("invalid cell id %q: expected latIdx_lonIdx", id)}
	}
	lat, err := strconv.Atoi(parts[0])
	if err != nil {
		return Cell{}, ValidationError{Msg: fmt.Sprintf("invalid cell id %q: non-numeric lat index", id)}
	}
	lon, err := strconv.Atoi(parts[1])
	if err != nil {
		return Cell{}, ValidationError{Msg: fmt.Sprintf("invalid cell id %q: non-numeric lon index", id)}
	}
	return Cell{LatIdx: lat, LonIdx: lon}, nil
}

// ParseCells parses a list of identifiers, failing on the first malformed one.
func ParseCells(ids []string) ([]Cell, error) {
	cells := make([]Cell, 0, len(ids))
	for _, id := range ids {
		c, err := ParseCell(id)
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, nil
}

// ID returns the canonical "latIdx_lonIdx" identifier.
func (c Cell) ID() string {
	return fmt.Sprintf("%d_%d", c.LatIdx, c.LonIdx)
}

func (c Cell) String() string { return c.ID() }

// Center returns the geographic coordinates of the cell centre for the given
// grid step.
func (c Cell) Center(step float64) (lat, lon float64) {
	return (float64(c.LatIdx) + 0.5) * step, (float64(c.LonIdx) + 0.5) * step
}

// Distance returns the Manhattan distance to another cell in grid steps.
func (c Cell) Distance(o Cell) int {
	return abs(c.LatIdx-o.LatIdx) + abs(c.LonIdx-o.LonIdx)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// MarshalText encodes the cell as its canonical identifier.
func (c Cell) MarshalText() ([]byte, error) {
	return []byte(c.ID()), nil
}

// UnmarshalText parses a canonical identifier.
func (c *Cell) UnmarshalText(b []byte) error {
	parsed, err := ParseCell(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
