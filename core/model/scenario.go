package model

import "fmt"

// Units describes the unit allocation and coverage radius for a scenario.
type Units struct {
	PatrolCount         int `json:"patrol_count"`
	EMSCount            int `json:"ems_count"`
	CoverageRadiusCells int `json:"coverage_radius_cells"`
}

// Total returns the combined unit capacity.
func (u Units) Total() int { return u.PatrolCount + u.EMSCount }

// Quota returns the allocation for one unit type.
func (u Units) Quota(t UnitType) int {
	switch t {
	case UnitPatrol:
		return u.PatrolCount
	case UnitEMS:
		return u.EMSCount
	}
	return 0
}

// Visible holds the information shown to the player during deployment.
type Visible struct {
	LookbackHours   int              `json:"lookback_hours"`
	RecentIncidents []RecentIncident `json:"recent_incidents"`
}

// Truth holds the ground-truth incidents hidden until the reveal phase.
type Truth struct {
	NextHourIncidents []Incident `json:"next_hour_incidents"`
}

// Baselines carries the two non-player placement policies used only for
// scoring comparison.
type Baselines struct {
	RecentPolicy []Cell `json:"baseline_recent_policy"`
	ModelPolicy  []Cell `json:"baseline_model_policy"`
}

// Scenario is the externally supplied bundle the core plays against. It is
// read-only: nothing in the core mutates a scenario after construction.
type Scenario struct {
	ID        string    `json:"scenario_id"`
	Title     string    `json:"title"`
	Briefing  string    `json:"briefing_text"`
	Objective string    `json:"objective_text,omitempty"`
	Units     Units     `json:"units"`
	Visible   Visible   `json:"visible"`
	Truth     Truth     `json:"truth"`
	Baselines Baselines `json:"baselines"`
}

// Validate checks that the scenario is playable.
func (s Scenario) Validate() error {
	if s.Units.Total() <= 0 {
		return fmt.Errorf("scenario %s: unit allocation must be positive", s.ID)
	}
	if s.Units.CoverageRadiusCells < 0 {
		return fmt.Errorf("scenario %s: coverage radius must not be negative", s.ID)
	}
	return nil
}
