// Package scoring computes the score breakdown for a set of placements
// against a scenario's ground truth, and the lift over the scenario's
// baseline policies. Everything here is a pure function of its inputs and is
// safe to recompute at any time.
package scoring

import (
	"github.com/opsgrid/dispatchsim/core/coverage"
	"github.com/opsgrid/dispatchsim/core/model"
)

// Weights are the tunable penalty weights.
type Weights struct {
	MissedPenalty     float64
	StackingPenalty   float64
	NeglectPenalty    float64
	StackingThreshold int
}

// DefaultWeights returns the standard weights: 2.0 per missed incident, 5.0
// per stacked pair within 3 cells, 10.0 per neglected neighborhood.
func DefaultWeights() Weights {
	return Weights{
		MissedPenalty:     2.0,
		StackingPenalty:   5.0,
		NeglectPenalty:    10.0,
		StackingThreshold: 3,
	}
}

// Breakdown is the detailed score decomposition.
type Breakdown struct {
	CoverageRate    float64 `json:"coverage_rate"`
	Covered         int     `json:"covered_incidents"`
	Missed          int     `json:"missed_incidents"`
	Total           int     `json:"total_incidents"`
	BaseScore       float64 `json:"base_score"`
	MissedPenalty   float64 `json:"missed_penalty"`
	StackingPenalty float64 `json:"stacking_penalty"`
	NeglectPenalty  float64 `json:"neglect_penalty"`
	BalanceBonus    float64 `json:"balance_bonus"`
	FinalScore      float64 `json:"final_score"`
}

// Score computes the full breakdown for placements against the scenario's
// next-hour truth. BalanceBonus is reserved and always zero.
func Score(placements []model.Cell, sc model.Scenario, radius int, w Weights) Breakdown {
	truth := sc.Truth.NextHourIncidents
	part := coverage.CoveredIncidents(truth, placements, radius)

	b := Breakdown{
		Covered:      part.Covered,
		Missed:       part.Missed,
		Total:        len(truth),
		CoverageRate: rate(part.Covered, len(truth)),
	}
	b.BaseScore = 100.0 * b.CoverageRate
	b.MissedPenalty = float64(part.Missed) * w.MissedPenalty
	b.StackingPenalty = StackingPenalty(placements, w)
	b.NeglectPenalty = NeglectPenalty(placements, truth, radius, w)

	b.FinalScore = b.BaseScore - b.MissedPenalty - b.StackingPenalty - b.NeglectPenalty + b.BalanceBonus
	if b.FinalScore < 0 {
		b.FinalScore = 0
	}
	return b
}

// StackingPenalty charges for every unordered pair of placements within the
// stacking threshold. The placement set is small, so the quadratic scan is
// fine.
func StackingPenalty(placements []model.Cell, w Weights) float64 {
	if len(placements) < 2 {
		return 0
	}
	pairs := 0
	for i := 0; i < len(placements); i++ {
		for j := i + 1; j < len(placements); j++ {
			if placements[i].Distance(placements[j]) <= w.StackingThreshold {
				pairs++
			}
		}
	}
	return float64(pairs) * w.StackingPenalty
}

// NeglectPenalty charges for every neighborhood that has at least one
// ground-truth incident but no covered incident within it.
func NeglectPenalty(placements []model.Cell, truth []model.Incident, radius int, w Weights) float64 {
	if len(truth) == 0 {
		return 0
	}
	covered := coverage.Union(placements, radius)
	withIncidents := make(map[string]struct{})
	withCoverage := make(map[string]struct{})
	for _, inc := range truth {
		if inc.Neighborhood == "" {
			continue
		}
		withIncidents[inc.Neighborhood] = struct{}{}
		if covered.Contains(inc.Cell) {
			withCoverage[inc.Neighborhood] = struct{}{}
		}
	}
	neglected := 0
	for n := range withIncidents {
		if _, ok := withCoverage[n]; !ok {
			neglected++
		}
	}
	return float64(neglected) * w.NeglectPenalty
}

// BaselineComparison reports the player's coverage rate against the two
// baseline policies supplied on the scenario.
type BaselineComparison struct {
	PlayerRate   float64 `json:"player_coverage_rate"`
	RecentRate   float64 `json:"baseline_recent_coverage_rate"`
	ModelRate    float64 `json:"baseline_model_coverage_rate"`
	LiftVsRecent float64 `json:"lift_vs_recent"`
	LiftVsModel  float64 `json:"lift_vs_model"`
}

// CompareBaselines recomputes coverage rates for the player and both baseline
// policies and reports the lift for each.
func CompareBaselines(player []model.Cell, sc model.Scenario, radius int) BaselineComparison {
	truth := sc.Truth.NextHourIncidents
	total := len(truth)

	cmp := BaselineComparison{
		PlayerRate: rate(coverage.CoveredIncidents(truth, player, radius).Covered, total),
		RecentRate: rate(coverage.CoveredIncidents(truth, sc.Baselines.RecentPolicy, radius).Covered, total),
		ModelRate:  rate(coverage.CoveredIncidents(truth, sc.Baselines.ModelPolicy, radius).Covered, total),
	}
	cmp.LiftVsRecent = cmp.PlayerRate - cmp.RecentRate
	cmp.LiftVsModel = cmp.PlayerRate - cmp.ModelRate
	return cmp
}

func rate(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(covered) / float64(total)
}
