// Package optimize places k units to maximize weighted coverage of predicted
// incidents under great-circle distance decay. It is independent of the game
// flow: both entry points are pure functions, callable on their own. All
// randomness flows through an explicit RNG so runs are reproducible.
package optimize

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Incident is a predicted incident with a demand weight.
type Incident struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Weight float64 `json:"weight"`
}

// Location is a candidate or chosen unit position.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Decay selects the distance-decay shape.
type Decay int

const (
	// DecayLinear scores max(0, 1-d/r).
	DecayLinear Decay = iota
	// DecayExponential scores exp(-2d/r).
	DecayExponential
)

// ParseDecay maps "linear" or "exponential" to a Decay.
func ParseDecay(s string) (Decay, error) {
	switch s {
	case "linear":
		return DecayLinear, nil
	case "exponential":
		return DecayExponential, nil
	}
	return 0, fmt.Errorf("unknown decay type %q", s)
}

// Method selects the optimization algorithm.
type Method int

const (
	MethodGreedy Method = iota
	MethodAnnealing
)

// ParseMethod maps "greedy" or "annealing" to a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "greedy":
		return MethodGreedy, nil
	case "annealing", "simulated_annealing":
		return MethodAnnealing, nil
	}
	return 0, fmt.Errorf("unknown optimization method %q", s)
}

// Config tunes the search. The zero value selects the defaults.
type Config struct {
	// Candidates is the candidate-grid budget for the greedy search.
	Candidates int
	// Iterations is the hard step budget for annealing.
	Iterations int
	// InitialTemp is the starting annealing temperature.
	InitialTemp float64
	// Cooling is the geometric cooling factor per step.
	Cooling float64
}

func (c Config) withDefaults() Config {
	if c.Candidates <= 0 {
		c.Candidates = 200
	}
	if c.Iterations <= 0 {
		c.Iterations = 1000
	}
	if c.InitialTemp <= 0 {
		c.InitialTemp = 100.0
	}
	if c.Cooling <= 0 || c.Cooling >= 1 {
		c.Cooling = 0.95
	}
	return c
}

// Haversine returns the great-circle distance between two points in km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180.0
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func decayScore(distance, radius float64, decay Decay) float64 {
	if distance > radius || radius <= 0 {
		return 0
	}
	if decay == DecayExponential {
		return math.Exp(-2.0 * distance / radius)
	}
	return math.Max(0, 1.0-distance/radius)
}

// ScoreCoverage returns the total weighted coverage of incidents by the given
// locations. Each incident counts its best single coverer; adding locations
// never lowers the score.
func ScoreCoverage(locations []Location, incidents []Incident, radius float64, decay Decay) float64 {
	if len(incidents) == 0 {
		return 0
	}
	contrib := make([]float64, len(incidents))
	for i, inc := range incidents {
		best := 0.0
		for _, loc := range locations {
			d := Haversine(inc.Lat, inc.Lon, loc.Lat, loc.Lon)
			if s := decayScore(d, radius, decay); s > best {
				best = s
			}
		}
		contrib[i] = inc.Weight * best
	}
	return floats.Sum(contrib)
}

// Optimize places k units to maximize ScoreCoverage. Empty incident input
// returns an empty placement list by contract. The greedy method is
// deterministic; annealing draws from rng (a default seed is used when rng is
// nil).
func Optimize(incidents []Incident, k int, radius float64, decay Decay, method Method, cfg Config, rng *rand.Rand) []Location {
	if len(incidents) == 0 || k <= 0 {
		return nil
	}
	cfg = cfg.withDefaults()
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if method == MethodAnnealing {
		return anneal(incidents, k, radius, decay, cfg, rng)
	}
	return greedy(incidents, k, radius, decay, cfg)
}

type boundingBox struct {
	minLat, maxLat float64
	minLon, maxLon float64
}

func bounds(incidents []Incident) boundingBox {
	b := boundingBox{
		minLat: incidents[0].Lat, maxLat: incidents[0].Lat,
		minLon: incidents[0].Lon, maxLon: incidents[0].Lon,
	}
	for _, inc := range incidents[1:] {
		b.minLat = math.Min(b.minLat, inc.Lat)
		b.maxLat = math.Max(b.maxLat, inc.Lat)
		b.minLon = math.Min(b.minLon, inc.Lon)
		b.maxLon = math.Max(b.maxLon, inc.Lon)
	}
	return b
}

func (b boundingBox) padded(frac float64) boundingBox {
	latPad := (b.maxLat - b.minLat) * frac
	lonPad := (b.maxLon - b.minLon) * frac
	return boundingBox{
		minLat: b.minLat - latPad, maxLat: b.maxLat + latPad,
		minLon: b.minLon - lonPad, maxLon: b.maxLon + lonPad,
	}
}

// candidateGrid samples an even grid over the padded bounding box.
func candidateGrid(incidents []Incident, budget int) []Location {
	b := bounds(incidents).padded(0.1)
	side := int(math.Sqrt(float64(budget)))
	if side < 1 {
		side = 1
	}
	candidates := make([]Location, 0, side*side)
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			fi, fj := 0.5, 0.5
			if side > 1 {
				fi = float64(i) / float64(side-1)
				fj = float64(j) / float64(side-1)
			}
			candidates = append(candidates, Location{
				Lat: b.minLat + (b.maxLat-b.minLat)*fi,
				Lon: b.minLon + (b.maxLon-b.minLon)*fj,
			})
		}
	}
	return candidates
}

// greedy appends, for k rounds, whichever candidate most increases the total
// score. Monotonic and deterministic, not guaranteed globally optimal.
func greedy(incidents []Incident, k int, radius float64, decay Decay, cfg Config) []Location {
	candidates := candidateGrid(incidents, cfg.Candidates)
	chosen := make([]Location, 0, k)

	for round := 0; round < k; round++ {
		bestScore := -1.0
		var best Location
		for _, cand := range candidates {
			trial := append(chosen[:len(chosen):len(chosen)], cand)
			score := ScoreCoverage(trial, incidents, radius, decay)
			if score > bestScore {
				bestScore = score
				best = cand
			}
		}
		chosen = append(chosen, best)
	}
	return chosen
}

// anneal perturbs one unit at a time, accepting improvements outright and
// regressions with probability exp(delta/T) under geometric cooling. The
// best-ever solution is returned, not the final state.
func anneal(incidents []Incident, k int, radius float64, decay Decay, cfg Config, rng *rand.Rand) []Location {
	b := bounds(incidents)

	current := make([]Location, k)
	for i := range current {
		current[i] = Location{
			Lat: b.minLat + rng.Float64()*(b.maxLat-b.minLat),
			Lon: b.minLon + rng.Float64()*(b.maxLon-b.minLon),
		}
	}
	currentScore := ScoreCoverage(current, incidents, radius, decay)
	best := append([]Location(nil), current...)
	bestScore := currentScore

	temp := cfg.InitialTemp
	for step := 0; step < cfg.Iterations; step++ {
		neighbor := append([]Location(nil), current...)
		idx := rng.Intn(k)

		// Bounded move of roughly one kilometre.
		lat := neighbor[idx].Lat + (rng.Float64()*2-1)*0.01
		lon := neighbor[idx].Lon + (rng.Float64()*2-1)*0.01
		neighbor[idx] = Location{
			Lat: math.Max(b.minLat, math.Min(b.maxLat, lat)),
			Lon: math.Max(b.minLon, math.Min(b.maxLon, lon)),
		}

		score := ScoreCoverage(neighbor, incidents, radius, decay)
		switch {
		case score > currentScore:
			current, currentScore = neighbor, score
			if score > bestScore {
				best = append([]Location(nil), neighbor...)
				bestScore = score
			}
		case rng.Float64() < math.Exp((score-currentScore)/temp):
			current, currentScore = neighbor, score
		}
		temp *= cfg.Cooling
	}
	return best
}
