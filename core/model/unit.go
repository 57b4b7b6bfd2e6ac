package model

import "fmt"

// UnitType identifies the kind of unit assigned to a placement.
type UnitType string

const (
	UnitPatrol UnitType = "patrol"
	UnitEMS    UnitType = "ems"
)

// ParseUnitType validates a unit type string against the closed set.
func ParseUnitType(s string) (UnitType, error) {
	switch UnitType(s) {
	case UnitPatrol, UnitEMS:
		return UnitType(s), nil
	}
	return "", ValidationError{Msg: fmt.Sprintf("unknown unit type %q", s)}
}

// Valid reports whether the unit type belongs to the closed set.
func (u UnitType) Valid() bool {
	return u == UnitPatrol || u == UnitEMS
}

// Placement assigns one unit of a given type to a cell.
type Placement struct {
	Cell Cell     `json:"cell_id"`
	Unit UnitType `json:"unit_type"`
}
