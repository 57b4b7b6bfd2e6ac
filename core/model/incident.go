package model

// Incident is a point event on the grid. For next-hour incidents it carries
// ground-truth status: the event really happens during the scored hour.
type Incident struct {
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Cell         Cell    `json:"cell_id"`
	Type         string  `json:"issue_reported,omitempty"`
	Severity     int     `json:"severity,omitempty"`
	Neighborhood string  `json:"neighborhood,omitempty"`
	Address      string  `json:"address,omitempty"`
}

// RecentIncident is a visible marker for an incident from the lookback window.
type RecentIncident struct {
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Cell         Cell    `json:"cell_id"`
	Type         string  `json:"issue_reported,omitempty"`
	Neighborhood string  `json:"neighborhood,omitempty"`
	AgeHours     int     `json:"age_hours"`
}
