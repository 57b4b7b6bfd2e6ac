package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opsgrid/dispatchsim/core/chaos"
	"github.com/opsgrid/dispatchsim/core/game"
	"github.com/opsgrid/dispatchsim/core/model"
	"github.com/opsgrid/dispatchsim/core/optimize"
	"github.com/opsgrid/dispatchsim/core/scoring"
	"github.com/opsgrid/dispatchsim/core/session"
	"github.com/opsgrid/dispatchsim/infra/logger"
	"github.com/opsgrid/dispatchsim/infra/metrics"
	"github.com/opsgrid/dispatchsim/internal/eventbus"
)

var (
	simScenarioPath string
	simScriptPath   string
	simStepSeconds  int
	simSeed         int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a chaos script headlessly with optimizer-chosen placements",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simScenarioPath, "scenario", "", "scenario JSON file")
	simulateCmd.Flags().StringVar(&simScriptPath, "script", "", "chaos script file (json or yaml)")
	simulateCmd.Flags().IntVar(&simStepSeconds, "step", 60, "tick interval in game seconds")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 1, "RNG seed for spawn spread and placement")
	if err := simulateCmd.MarkFlagRequired("scenario"); err != nil {
		panic(err)
	}
	if err := simulateCmd.MarkFlagRequired("script"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	logg := logger.New("simulate-command")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sc, err := loadScenario(simScenarioPath)
	if err != nil {
		return err
	}
	script, err := loadScript(simScriptPath)
	if err != nil {
		return err
	}

	sink, err := metrics.NewPromSink(nil)
	if err != nil {
		return fmt.Errorf("prom sink: %w", err)
	}
	bus := eventbus.New()
	defer bus.Close()
	events := bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			logg.Debugw("session event", map[string]any{"event": fmt.Sprintf("%+v", e)})
		}
	}()

	mgr := session.NewManager(cfg.Scoring.Weights(), bus, sink, logg)
	id, err := mgr.Start(sc, script, simSeed)
	if err != nil {
		return err
	}

	if _, err := mgr.SetPhase(id, game.PhaseDeploy); err != nil {
		return err
	}
	if err := autoPlace(mgr, id, sc, cfg.Optimizer.Tuning()); err != nil {
		return err
	}
	if _, err := mgr.Commit(id); err != nil {
		return err
	}
	if _, err := mgr.SetPhase(id, game.PhaseReveal); err != nil {
		return err
	}

	if simStepSeconds <= 0 {
		simStepSeconds = 60
	}
	horizon := scriptHorizon(script)
	var summary chaos.Summary
	for t := 0; t <= horizon; t += simStepSeconds {
		summary, err = mgr.Tick(id, t)
		if err != nil {
			return err
		}
	}
	summary, err = mgr.Tick(id, horizon)
	if err != nil {
		return err
	}

	if _, err := mgr.SetPhase(id, game.PhaseDebrief); err != nil {
		return err
	}
	breakdown, err := mgr.Score(id)
	if err != nil {
		return err
	}
	bus.Unsubscribe(events)
	<-done

	out := struct {
		Scenario  string                 `json:"scenario"`
		Script    string                 `json:"script"`
		Summary   chaos.Summary          `json:"wave_summary"`
		Breakdown scoring.Breakdown      `json:"breakdown"`
		Advisory  chaos.ModifiedCoverage `json:"advisory_coverage"`
	}{
		Scenario:  sc.ID,
		Script:    script.Name,
		Summary:   summary,
		Breakdown: breakdown,
		Advisory:  script.Modifiers.Apply(breakdown.CoverageRate),
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func loadScript(path string) (*chaos.Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		format = "json"
	}
	return chaos.DecodeScript(f, format)
}

// autoPlace fills the placement set by optimizing over the scenario's visible
// recent incidents, weighted by recency. Patrol quota fills first, then EMS.
func autoPlace(mgr *session.Manager, id string, sc model.Scenario, tuning optimize.Config) error {
	incidents := make([]optimize.Incident, 0, len(sc.Visible.RecentIncidents))
	for _, ri := range sc.Visible.RecentIncidents {
		incidents = append(incidents, optimize.Incident{
			Lat:    ri.Lat,
			Lon:    ri.Lon,
			Weight: 1.0 / float64(1+ri.AgeHours),
		})
	}

	capacity := sc.Units.Total()
	var cells []model.Cell
	if len(incidents) > 0 {
		radiusKm := float64(sc.Units.CoverageRadiusCells) * model.CellStepDegrees * 111.0
		rng := rand.New(rand.NewSource(simSeed))
		locations := optimize.Optimize(incidents, capacity, radiusKm, optimize.DecayLinear, optimize.MethodGreedy, tuning, rng)
		cells = dedupeCells(locations, capacity)
	}
	// Pad from recent incident cells if the optimizer came up short.
	for _, ri := range sc.Visible.RecentIncidents {
		if len(cells) >= capacity {
			break
		}
		cells = appendUnique(cells, ri.Cell)
	}
	if len(cells) < capacity {
		return fmt.Errorf("cannot derive %d distinct placements from scenario", capacity)
	}

	placed := 0
	for _, unit := range []model.UnitType{model.UnitPatrol, model.UnitEMS} {
		for i := 0; i < sc.Units.Quota(unit); i++ {
			if _, err := mgr.AddPlacement(id, cells[placed], unit); err != nil {
				return err
			}
			placed++
		}
	}
	return nil
}

func dedupeCells(locations []optimize.Location, limit int) []model.Cell {
	var cells []model.Cell
	for _, loc := range locations {
		if len(cells) >= limit {
			break
		}
		cell := model.Cell{
			LatIdx: int(math.Floor(loc.Lat / model.CellStepDegrees)),
			LonIdx: int(math.Floor(loc.Lon / model.CellStepDegrees)),
		}
		cells = appendUnique(cells, cell)
	}
	return cells
}

func appendUnique(cells []model.Cell, c model.Cell) []model.Cell {
	for _, cur := range cells {
		if cur == c {
			return cells
		}
	}
	return append(cells, c)
}

func scriptHorizon(s *chaos.Script) int {
	horizon := 0
	for _, w := range s.Waves {
		if w.TriggerSeconds > horizon {
			horizon = w.TriggerSeconds
		}
		for _, cl := range w.Clusters {
			for _, casc := range cl.Cascades {
				if t := w.TriggerSeconds + casc.AfterSeconds; t > horizon {
					horizon = t
				}
			}
		}
	}
	return horizon
}
