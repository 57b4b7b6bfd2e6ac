package cmd

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsgrid/dispatchsim/core/optimize"
	"github.com/opsgrid/dispatchsim/infra/logger"
)

var (
	optIncidentsPath string
	optUnits         int
	optRadius        float64
	optDecay         string
	optMethod        string
	optSeed          int64
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Place units to maximize weighted coverage of predicted incidents",
	RunE:  runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&optIncidentsPath, "incidents", "", "JSON file with [{lat, lon, weight}] predictions")
	optimizeCmd.Flags().IntVar(&optUnits, "units", 3, "number of units to place")
	optimizeCmd.Flags().Float64Var(&optRadius, "radius", 5.0, "coverage radius in km")
	optimizeCmd.Flags().StringVar(&optDecay, "decay", "linear", "distance decay: linear or exponential")
	optimizeCmd.Flags().StringVar(&optMethod, "method", "greedy", "algorithm: greedy or annealing")
	optimizeCmd.Flags().Int64Var(&optSeed, "seed", 1, "RNG seed for annealing")
	if err := optimizeCmd.MarkFlagRequired("incidents"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	logg := logger.New("optimize-command")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	data, err := os.ReadFile(optIncidentsPath)
	if err != nil {
		return fmt.Errorf("read incidents: %w", err)
	}
	var incidents []optimize.Incident
	if err := json.Unmarshal(data, &incidents); err != nil {
		return fmt.Errorf("decode incidents: %w", err)
	}

	decay, err := optimize.ParseDecay(optDecay)
	if err != nil {
		return err
	}
	method, err := optimize.ParseMethod(optMethod)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(optSeed))
	locations := optimize.Optimize(incidents, optUnits, optRadius, decay, method, cfg.Optimizer.Tuning(), rng)
	score := optimize.ScoreCoverage(locations, incidents, optRadius, decay)
	logg.Infof("placed %d units over %d incidents, score %.3f", len(locations), len(incidents), score)

	out := struct {
		Locations []optimize.Location `json:"locations"`
		Score     float64             `json:"score"`
	}{Locations: locations, Score: score}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
