package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/stabwatch/internal/config"
	"github.com/ppiankov/stabwatch/internal/engine"
	"github.com/ppiankov/stabwatch/internal/sim"
)

var (
	demoTicks  int
	demoDt     float64
	demoSeed   int64
	demoConfig string
)

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().IntVar(&demoTicks, "ticks", 200, "Number of simulation ticks")
	demoCmd.Flags().Float64Var(&demoDt, "dt", 0.1, "Seconds per tick")
	demoCmd.Flags().Int64Var(&demoSeed, "seed", 42, "Event schedule seed")
	demoCmd.Flags().StringVar(&demoConfig, "config", "", "Path to config YAML")
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a deterministic stability simulation",
	Long:  "Drives the engine with a synthetic workload of periodic error bursts,\nexception clusters, and panic spikes, printing one status line per tick.\nThe same seed always produces the same run.",
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, _, err := config.Load(demoConfig)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	eng := engine.New(cfg.EngineOptions())

	fmt.Printf("=== stabwatch simulation (seed %d, %d ticks, dt %.2fs) ===\n\n", demoSeed, demoTicks, demoDt)

	result := sim.Run(eng, sim.Options{
		Ticks: demoTicks,
		Dt:    demoDt,
		Seed:  demoSeed,
		Out:   os.Stdout,
	})

	fmt.Println()
	fmt.Printf("Final stability:  %.3f (%s)\n", result.Final.Stability, result.Final.Zone.Label())
	fmt.Printf("Compliance:       %.1f%%\n", result.Final.Compliance)
	fmt.Printf("Kill switches:    %d\n", result.KillSwitches)

	report := eng.StakeholderMetrics()
	fmt.Printf("Developer risk:   %.4f\n", report.DeveloperRisk)
	fmt.Printf("Consumer safety:  %.4f\n", report.ConsumerSafety)
	fmt.Printf("Reward:           %.4f\n", report.StakeholderReward)

	return nil
}
