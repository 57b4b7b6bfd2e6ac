package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opsgrid/dispatchsim/core/model"
	"github.com/opsgrid/dispatchsim/core/scoring"
)

var (
	scoreScenarioPath string
	scorePlacements   string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a placement set against a scenario's ground truth",
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreScenarioPath, "scenario", "", "scenario JSON file")
	scoreCmd.Flags().StringVar(&scorePlacements, "placements", "", "comma-separated cell ids, e.g. 6050_-19543,6054_-19540")
	if err := scoreCmd.MarkFlagRequired("scenario"); err != nil {
		panic(err)
	}
	if err := scoreCmd.MarkFlagRequired("placements"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(scoreCmd)
}

func loadScenario(path string) (model.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	var sc model.Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return model.Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return model.Scenario{}, err
	}
	return sc, nil
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sc, err := loadScenario(scoreScenarioPath)
	if err != nil {
		return err
	}
	cells, err := model.ParseCells(strings.Split(scorePlacements, ","))
	if err != nil {
		return err
	}

	radius := sc.Units.CoverageRadiusCells
	out := struct {
		Breakdown scoring.Breakdown          `json:"breakdown"`
		Baselines scoring.BaselineComparison `json:"baselines"`
	}{
		Breakdown: scoring.Score(cells, sc, radius, cfg.Scoring.Weights()),
		Baselines: scoring.CompareBaselines(cells, sc, radius),
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
