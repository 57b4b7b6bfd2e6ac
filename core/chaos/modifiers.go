package chaos

// ModifiedCoverage is the advisory effect of the global modifiers on an
// externally supplied coverage rate. It is reported for display and coaching;
// the scoring engine does not consume it.
type ModifiedCoverage struct {
	BaseRate             float64 `json:"base_coverage_rate"`
	ModifiedRate         float64 `json:"modified_coverage_rate"`
	CongestionPenalty    float64 `json:"radio_congestion_penalty"`
	FatiguePenalty       float64 `json:"fatigue_penalty"`
	DispatchDelaySeconds int     `json:"dispatch_delay_seconds"`
}

// Apply degrades baseRate by fixed linear penalties: congestion costs up to
// 10%, each fatigue point above 1 costs 5%. The result is clamped to [0,1].
func (m GlobalModifiers) Apply(baseRate float64) ModifiedCoverage {
	congestion := m.RadioCongestion * 0.1
	fatigue := (m.UnitFatigueRate - 1.0) * 0.05

	modified := baseRate - congestion - fatigue
	if modified < 0 {
		modified = 0
	}
	if modified > 1 {
		modified = 1
	}
	return ModifiedCoverage{
		BaseRate:             baseRate,
		ModifiedRate:         modified,
		CongestionPenalty:    congestion,
		FatiguePenalty:       fatigue,
		DispatchDelaySeconds: m.DispatchDelaySeconds,
	}
}
