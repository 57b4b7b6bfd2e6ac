// Package chaos runs an adversarial incident script against a session: waves
// of incident clusters triggered on a compressed clock, with conditional
// cascades that fire when a cluster was left uncovered. Scripts arrive as
// opaque JSON or YAML from an external generator and are validated
// exhaustively at this boundary before the engine will touch them.
package chaos

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opsgrid/dispatchsim/core/model"
)

// SchemaError reports a chaos script missing required fields or carrying
// values outside the schema. The engine refuses to initialize on one;
// selecting a fallback script is the caller's responsibility.
type SchemaError struct {
	Msg string
}

func (e SchemaError) Error() string { return e.Msg }

func schemaErrorf(format string, args ...any) SchemaError {
	return SchemaError{Msg: fmt.Sprintf(format, args...)}
}

// CascadeCondition is the closed set of cascade trigger conditions.
type CascadeCondition int

const (
	// CascadeAlways fires the cascade unconditionally.
	CascadeAlways CascadeCondition = iota
	// CascadeIfNotCovered fires only if the origin cell is outside the
	// player's coverage set at the moment the wave is processed.
	CascadeIfNotCovered
)

func (c CascadeCondition) String() string {
	if c == CascadeIfNotCovered {
		return "if_not_covered"
	}
	return "always"
}

func parseCondition(s string) (CascadeCondition, error) {
	switch s {
	case "", "always":
		return CascadeAlways, nil
	case "if_not_covered":
		return CascadeIfNotCovered, nil
	}
	return 0, schemaErrorf("unknown cascade condition %q", s)
}

// Cascade is a delayed follow-on spawn tied to a cluster.
type Cascade struct {
	AfterSeconds int
	IncidentType string
	Count        int
	Condition    CascadeCondition
}

// Cluster is a batch of incidents spawned at one origin cell.
type Cluster struct {
	Cell              model.Cell
	IncidentType      string
	Severity          int
	Count             int
	SpreadRadiusCells int
	Cascades          []Cascade
}

// Wave is a time-triggered list of clusters.
type Wave struct {
	TriggerSeconds int
	Name           string
	Clusters       []Cluster
}

// GlobalModifiers are system-wide effects declared by the script.
type GlobalModifiers struct {
	RadioCongestion      float64
	UnitFatigueRate      float64
	DispatchDelaySeconds int
	EMSDelayed           bool
}

// Script is a fully validated chaos script.
type Script struct {
	Mode                  string
	Name                  string
	Briefing              string
	TimeCompressionFactor float64
	Modifiers             GlobalModifiers
	Waves                 []Wave
}

// Wire representation. Pointers distinguish absent required fields from zero
// values.
type rawScript struct {
	Mode            string        `json:"mode" yaml:"mode"`
	ScenarioName    string        `json:"scenario_name" yaml:"scenario_name"`
	MissionBriefing string        `json:"mission_briefing" yaml:"mission_briefing"`
	TimeCompression float64       `json:"time_compression_factor" yaml:"time_compression_factor"`
	GlobalModifiers *rawModifiers `json:"global_modifiers" yaml:"global_modifiers"`
	Waves           []rawWave     `json:"waves" yaml:"waves"`
}

type rawModifiers struct {
	RadioCongestion      float64 `json:"radio_congestion" yaml:"radio_congestion"`
	UnitFatigueRate      float64 `json:"unit_fatigue_rate" yaml:"unit_fatigue_rate"`
	DispatchDelaySeconds int     `json:"dispatch_delay_seconds" yaml:"dispatch_delay_seconds"`
	EMSDelayed           bool    `json:"ems_delayed" yaml:"ems_delayed"`
}

type rawWave struct {
	TPlusSeconds *int         `json:"t_plus_seconds" yaml:"t_plus_seconds"`
	WaveName     string       `json:"wave_name" yaml:"wave_name"`
	Clusters     []rawCluster `json:"clusters" yaml:"clusters"`
}

type rawCluster struct {
	CellID       string       `json:"cell_id" yaml:"cell_id"`
	IncidentType string       `json:"incident_type" yaml:"incident_type"`
	Severity     int          `json:"severity" yaml:"severity"`
	Count        int          `json:"count" yaml:"count"`
	SpreadRadius int          `json:"spread_radius_cells" yaml:"spread_radius_cells"`
	Cascade      []rawCascade `json:"cascade" yaml:"cascade"`
}

type rawCascade struct {
	AfterSeconds *int   `json:"after_seconds" yaml:"after_seconds"`
	IncidentType string `json:"incident_type" yaml:"incident_type"`
	Count        int    `json:"count" yaml:"count"`
	Condition    string `json:"condition" yaml:"condition"`
}

// ParseScript decodes and validates a JSON chaos script.
func ParseScript(data []byte) (*Script, error) {
	var raw rawScript
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, schemaErrorf("decode script: %v", err)
	}
	return buildScript(raw)
}

// DecodeScript reads a script from r in the given format ("json" or "yaml").
func DecodeScript(r io.Reader, format string) (*Script, error) {
	var raw rawScript
	switch strings.ToLower(format) {
	case "json":
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return nil, schemaErrorf("decode script: %v", err)
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			return nil, schemaErrorf("decode script: %v", err)
		}
	default:
		return nil, schemaErrorf("unsupported script format %q", format)
	}
	return buildScript(raw)
}

func buildScript(raw rawScript) (*Script, error) {
	if raw.Mode == "" {
		return nil, schemaErrorf("script missing mode")
	}
	if raw.ScenarioName == "" {
		return nil, schemaErrorf("script missing scenario_name")
	}
	if len(raw.Waves) == 0 {
		return nil, schemaErrorf("script has no waves")
	}

	s := &Script{
		Mode:                  raw.Mode,
		Name:                  raw.ScenarioName,
		Briefing:              raw.MissionBriefing,
		TimeCompressionFactor: raw.TimeCompression,
	}
	if s.TimeCompressionFactor <= 0 {
		s.TimeCompressionFactor = 1
	}
	if raw.GlobalModifiers != nil {
		s.Modifiers = GlobalModifiers{
			RadioCongestion:      raw.GlobalModifiers.RadioCongestion,
			UnitFatigueRate:      raw.GlobalModifiers.UnitFatigueRate,
			DispatchDelaySeconds: raw.GlobalModifiers.DispatchDelaySeconds,
			EMSDelayed:           raw.GlobalModifiers.EMSDelayed,
		}
	}
	if s.Modifiers.UnitFatigueRate == 0 {
		s.Modifiers.UnitFatigueRate = 1
	}
	if err := s.Modifiers.validate(); err != nil {
		return nil, err
	}

	for wi, rw := range raw.Waves {
		wave, err := buildWave(wi, rw)
		if err != nil {
			return nil, err
		}
		s.Waves = append(s.Waves, wave)
	}
	// The engine consumes waves through a monotone cursor, so order them by
	// trigger time.
	sort.SliceStable(s.Waves, func(i, j int) bool {
		return s.Waves[i].TriggerSeconds < s.Waves[j].TriggerSeconds
	})
	return s, nil
}

func buildWave(wi int, rw rawWave) (Wave, error) {
	if rw.TPlusSeconds == nil {
		return Wave{}, schemaErrorf("wave %d missing t_plus_seconds", wi)
	}
	if *rw.TPlusSeconds < 0 {
		return Wave{}, schemaErrorf("wave %d: t_plus_seconds must not be negative", wi)
	}
	if len(rw.Clusters) == 0 {
		return Wave{}, schemaErrorf("wave %d has no clusters", wi)
	}
	wave := Wave{TriggerSeconds: *rw.TPlusSeconds, Name: rw.WaveName}
	for ci, rc := range rw.Clusters {
		cluster, err := buildCluster(wi, ci, rc)
		if err != nil {
			return Wave{}, err
		}
		wave.Clusters = append(wave.Clusters, cluster)
	}
	return wave, nil
}

func buildCluster(wi, ci int, rc rawCluster) (Cluster, error) {
	if rc.CellID == "" {
		return Cluster{}, schemaErrorf("wave %d cluster %d missing cell_id", wi, ci)
	}
	cell, err := model.ParseCell(rc.CellID)
	if err != nil {
		return Cluster{}, schemaErrorf("wave %d cluster %d: %v", wi, ci, err)
	}
	if rc.IncidentType == "" {
		return Cluster{}, schemaErrorf("wave %d cluster %d missing incident_type", wi, ci)
	}
	cluster := Cluster{
		Cell:              cell,
		IncidentType:      rc.IncidentType,
		Severity:          rc.Severity,
		Count:             rc.Count,
		SpreadRadiusCells: rc.SpreadRadius,
	}
	if cluster.Severity == 0 {
		cluster.Severity = 3
	}
	if cluster.Severity < 1 || cluster.Severity > 5 {
		return Cluster{}, schemaErrorf("wave %d cluster %d: severity %d out of range", wi, ci, cluster.Severity)
	}
	if cluster.Count == 0 {
		cluster.Count = 1
	}
	if cluster.Count < 0 {
		return Cluster{}, schemaErrorf("wave %d cluster %d: count must be positive", wi, ci)
	}
	if cluster.SpreadRadiusCells < 0 {
		return Cluster{}, schemaErrorf("wave %d cluster %d: spread_radius_cells must not be negative", wi, ci)
	}
	for xi, rx := range rc.Cascade {
		casc, err := buildCascade(wi, ci, xi, rx)
		if err != nil {
			return Cluster{}, err
		}
		cluster.Cascades = append(cluster.Cascades, casc)
	}
	return cluster, nil
}

func buildCascade(wi, ci, xi int, rx rawCascade) (Cascade, error) {
	if rx.AfterSeconds == nil {
		return Cascade{}, schemaErrorf("wave %d cluster %d cascade %d missing after_seconds", wi, ci, xi)
	}
	if *rx.AfterSeconds < 0 {
		return Cascade{}, schemaErrorf("wave %d cluster %d cascade %d: after_seconds must not be negative", wi, ci, xi)
	}
	if rx.IncidentType == "" {
		return Cascade{}, schemaErrorf("wave %d cluster %d cascade %d missing incident_type", wi, ci, xi)
	}
	cond, err := parseCondition(rx.Condition)
	if err != nil {
		return Cascade{}, err
	}
	casc := Cascade{
		AfterSeconds: *rx.AfterSeconds,
		IncidentType: rx.IncidentType,
		Count:        rx.Count,
		Condition:    cond,
	}
	if casc.Count == 0 {
		casc.Count = 1
	}
	if casc.Count < 0 {
		return Cascade{}, schemaErrorf("wave %d cluster %d cascade %d: count must be positive", wi, ci, xi)
	}
	return casc, nil
}

func (m GlobalModifiers) validate() error {
	if m.RadioCongestion < 0 || m.RadioCongestion > 1 {
		return schemaErrorf("radio_congestion %.2f out of [0,1]", m.RadioCongestion)
	}
	if m.UnitFatigueRate < 1 {
		return schemaErrorf("unit_fatigue_rate %.2f must be >= 1", m.UnitFatigueRate)
	}
	if m.DispatchDelaySeconds < 0 {
		return schemaErrorf("dispatch_delay_seconds must not be negative")
	}
	return nil
}
