package chaos

import (
	"math/rand"

	"github.com/opsgrid/dispatchsim/core/coverage"
	"github.com/opsgrid/dispatchsim/core/model"
)

// cascadeSeverity is assigned to all cascade-spawned incidents: follow-on
// events are urgent by definition.
const cascadeSeverity = 4

// pendingCascade is a registered cascade waiting for its absolute trigger
// time. Each fires at most once.
type pendingCascade struct {
	Origin       model.Cell
	TriggerAt    int
	IncidentType string
	Count        int
	SpreadRadius int
}

// State is the runtime state of the wave engine. It advances monotonically
// and never rewinds. Like game.State it is a value: Update returns a new
// State and leaves the receiver untouched.
type State struct {
	script  *Script
	waveIdx int
	pending []pendingCascade
	Spawned []model.Incident
	Elapsed int
}

// NewState initializes the engine for a validated script.
func NewState(s *Script) State {
	return State{script: s}
}

// Script returns the script the engine was initialized with.
func (s State) Script() *Script { return s.script }

// Update advances the engine to elapsedSeconds. It triggers every due wave,
// registers cascades whose condition holds against the player's coverage set
// at this moment, and fires every due pending cascade. Repeated calls at the
// same or an earlier time spawn nothing, so the host may poll at any cadence
// as long as time never moves backward.
func (s State) Update(elapsedSeconds int, placements []model.Cell, radius int, rng *rand.Rand) State {
	if s.script == nil || elapsedSeconds < s.Elapsed {
		return s
	}
	next := s.clone()
	next.Elapsed = elapsedSeconds

	covered := coverage.Union(placements, radius)

	for next.waveIdx < len(next.script.Waves) {
		wave := next.script.Waves[next.waveIdx]
		if wave.TriggerSeconds > elapsedSeconds {
			break
		}
		for _, cluster := range wave.Clusters {
			next.Spawned = append(next.Spawned, spawnCluster(cluster.Cell, cluster.IncidentType, cluster.Severity, cluster.Count, cluster.SpreadRadiusCells, rng)...)
			for _, casc := range cluster.Cascades {
				if casc.Condition == CascadeIfNotCovered && covered.Contains(cluster.Cell) {
					continue
				}
				next.pending = append(next.pending, pendingCascade{
					Origin:       cluster.Cell,
					TriggerAt:    wave.TriggerSeconds + casc.AfterSeconds,
					IncidentType: casc.IncidentType,
					Count:        casc.Count,
					SpreadRadius: cluster.SpreadRadiusCells,
				})
			}
		}
		next.waveIdx++
	}

	remaining := next.pending[:0:0]
	for _, casc := range next.pending {
		if casc.TriggerAt <= elapsedSeconds {
			next.Spawned = append(next.Spawned, spawnCluster(casc.Origin, casc.IncidentType, cascadeSeverity, casc.Count, casc.SpreadRadius, rng)...)
		} else {
			remaining = append(remaining, casc)
		}
	}
	next.pending = remaining
	return next
}

// spawnCluster spawns count incidents around origin. With a spread radius and
// an RNG, each incident lands on a uniformly chosen cell of the taxicab disk;
// otherwise all land on the origin.
func spawnCluster(origin model.Cell, incidentType string, severity, count, spreadRadius int, rng *rand.Rand) []model.Incident {
	incidents := make([]model.Incident, 0, count)
	for i := 0; i < count; i++ {
		cell := origin
		if spreadRadius > 0 && rng != nil {
			dLat := rng.Intn(2*spreadRadius+1) - spreadRadius
			budget := spreadRadius - absInt(dLat)
			dLon := rng.Intn(2*budget+1) - budget
			cell = model.Cell{LatIdx: origin.LatIdx + dLat, LonIdx: origin.LonIdx + dLon}
		}
		lat, lon := cell.Center(model.CellStepDegrees)
		incidents = append(incidents, model.Incident{
			Lat:      lat,
			Lon:      lon,
			Cell:     cell,
			Type:     incidentType,
			Severity: severity,
		})
	}
	return incidents
}

// Summary is a progress snapshot for display.
type Summary struct {
	TotalWaves       int `json:"total_waves"`
	CompletedWaves   int `json:"completed_waves"`
	PendingWaves     int `json:"pending_waves"`
	PendingCascades  int `json:"pending_cascades"`
	SpawnedIncidents int `json:"total_incidents_spawned"`
	ElapsedSeconds   int `json:"game_time_seconds"`
}

// Summary reports wave and cascade progress.
func (s State) Summary() Summary {
	total := 0
	if s.script != nil {
		total = len(s.script.Waves)
	}
	return Summary{
		TotalWaves:       total,
		CompletedWaves:   s.waveIdx,
		PendingWaves:     total - s.waveIdx,
		PendingCascades:  len(s.pending),
		SpawnedIncidents: len(s.Spawned),
		ElapsedSeconds:   s.Elapsed,
	}
}

func (s State) clone() State {
	next := s
	next.pending = append([]pendingCascade(nil), s.pending...)
	next.Spawned = append([]model.Incident(nil), s.Spawned...)
	return next
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
