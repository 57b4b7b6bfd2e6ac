package chaos

import (
	"errors"
	"strings"
	"testing"
)

const validScript = `{
  "mode": "PANDEMONIUM",
  "scenario_name": "Operation: Corridor Collapse",
  "mission_briefing": "Multiple incidents erupting across the corridor.",
  "time_compression_factor": 4,
  "global_modifiers": {
    "radio_congestion": 0.4,
    "unit_fatigue_rate": 1.8,
    "dispatch_delay_seconds": 12,
    "ems_delayed": true
  },
  "waves": [
    {
      "t_plus_seconds": 0,
      "wave_name": "Initial Ignition",
      "clusters": [
        {
          "cell_id": "6050_-19543",
          "incident_type": "VEHICLE FIRE",
          "severity": 5,
          "count": 3,
          "spread_radius_cells": 2,
          "cascade": [
            {
              "after_seconds": 180,
              "incident_type": "COLLISION",
              "count": 2,
              "condition": "if_not_covered"
            }
          ]
        }
      ]
    },
    {
      "t_plus_seconds": 600,
      "wave_name": "Spread",
      "clusters": [
        {"cell_id": "6052_-19545", "incident_type": "COLLISION", "count": 2}
      ]
    }
  ]
}`

func TestParseScript(t *testing.T) {
	s, err := ParseScript([]byte(validScript))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Name != "Operation: Corridor Collapse" {
		t.Fatalf("name = %q", s.Name)
	}
	if s.TimeCompressionFactor != 4 {
		t.Fatalf("compression = %v", s.TimeCompressionFactor)
	}
	if s.Modifiers.RadioCongestion != 0.4 || !s.Modifiers.EMSDelayed {
		t.Fatalf("modifiers = %+v", s.Modifiers)
	}
	if len(s.Waves) != 2 {
		t.Fatalf("waves = %d", len(s.Waves))
	}
	w := s.Waves[0]
	if w.TriggerSeconds != 0 || len(w.Clusters) != 1 {
		t.Fatalf("wave 0 = %+v", w)
	}
	cl := w.Clusters[0]
	if cl.Count != 3 || cl.SpreadRadiusCells != 2 || len(cl.Cascades) != 1 {
		t.Fatalf("cluster = %+v", cl)
	}
	if cl.Cascades[0].Condition != CascadeIfNotCovered {
		t.Fatalf("condition = %v", cl.Cascades[0].Condition)
	}
	// Unset cluster fields take defaults.
	cl = s.Waves[1].Clusters[0]
	if cl.Severity != 3 {
		t.Fatalf("default severity = %d", cl.Severity)
	}
}

func TestParseScriptSchemaErrors(t *testing.T) {
	cases := map[string]string{
		"no mode":           `{"scenario_name": "x", "waves": [{"t_plus_seconds": 0, "clusters": [{"cell_id": "1_1", "incident_type": "A"}]}]}`,
		"no name":           `{"mode": "P", "waves": [{"t_plus_seconds": 0, "clusters": [{"cell_id": "1_1", "incident_type": "A"}]}]}`,
		"no waves":          `{"mode": "P", "scenario_name": "x", "waves": []}`,
		"no clusters":       `{"mode": "P", "scenario_name": "x", "waves": [{"t_plus_seconds": 0, "clusters": []}]}`,
		"no trigger":        `{"mode": "P", "scenario_name": "x", "waves": [{"clusters": [{"cell_id": "1_1", "incident_type": "A"}]}]}`,
		"bad cell":          `{"mode": "P", "scenario_name": "x", "waves": [{"t_plus_seconds": 0, "clusters": [{"cell_id": "oops", "incident_type": "A"}]}]}`,
		"no incident type":  `{"mode": "P", "scenario_name": "x", "waves": [{"t_plus_seconds": 0, "clusters": [{"cell_id": "1_1"}]}]}`,
		"bad severity":      `{"mode": "P", "scenario_name": "x", "waves": [{"t_plus_seconds": 0, "clusters": [{"cell_id": "1_1", "incident_type": "A", "severity": 9}]}]}`,
		"bad condition":     `{"mode": "P", "scenario_name": "x", "waves": [{"t_plus_seconds": 0, "clusters": [{"cell_id": "1_1", "incident_type": "A", "cascade": [{"after_seconds": 1, "incident_type": "B", "condition": "sometimes"}]}]}]}`,
		"no cascade delay":  `{"mode": "P", "scenario_name": "x", "waves": [{"t_plus_seconds": 0, "clusters": [{"cell_id": "1_1", "incident_type": "A", "cascade": [{"incident_type": "B"}]}]}]}`,
		"bad fatigue":       `{"mode": "P", "scenario_name": "x", "global_modifiers": {"unit_fatigue_rate": 0.5}, "waves": [{"t_plus_seconds": 0, "clusters": [{"cell_id": "1_1", "incident_type": "A"}]}]}`,
		"congestion over 1": `{"mode": "P", "scenario_name": "x", "global_modifiers": {"radio_congestion": 1.5, "unit_fatigue_rate": 1}, "waves": [{"t_plus_seconds": 0, "clusters": [{"cell_id": "1_1", "incident_type": "A"}]}]}`,
	}
	for name, raw := range cases {
		_, err := ParseScript([]byte(raw))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		var serr SchemaError
		if !errors.As(err, &serr) {
			t.Fatalf("%s: expected SchemaError, got %T", name, err)
		}
	}
}

func TestParseScriptSortsWaves(t *testing.T) {
	raw := `{"mode": "P", "scenario_name": "x", "waves": [
      {"t_plus_seconds": 600, "clusters": [{"cell_id": "1_1", "incident_type": "A"}]},
      {"t_plus_seconds": 0, "clusters": [{"cell_id": "2_2", "incident_type": "B"}]}
    ]}`
	s, err := ParseScript([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Waves[0].TriggerSeconds != 0 || s.Waves[1].TriggerSeconds != 600 {
		t.Fatalf("waves not ordered: %d, %d", s.Waves[0].TriggerSeconds, s.Waves[1].TriggerSeconds)
	}
}

func TestDecodeScriptYAML(t *testing.T) {
	raw := `
mode: PANDEMONIUM
scenario_name: Operation Night Shift
waves:
  - t_plus_seconds: 0
    clusters:
      - cell_id: "6050_-19543"
        incident_type: HAZARD
`
	s, err := DecodeScript(strings.NewReader(raw), "yaml")
	if err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if len(s.Waves) != 1 || s.Waves[0].Clusters[0].IncidentType != "HAZARD" {
		t.Fatalf("script = %+v", s)
	}
	if _, err := DecodeScript(strings.NewReader(raw), "toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
