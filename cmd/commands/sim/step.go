package sim

import (
	"fmt"

	"nathanbeddoewebdev/dcsim/internal/config"
	"nathanbeddoewebdev/dcsim/internal/engine"
	"nathanbeddoewebdev/dcsim/internal/topology"

	"github.com/spf13/cobra"
)

// StepCommand returns the "sim step" command.
func StepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Advance the simulation without the dashboard",
		Long: `Advance the simulation a fixed number of ticks as fast as possible and
print a summary. Detected incidents are appended to the persistent event
log exactly as in a timed run.

Examples:
  dcsim sim step
  dcsim sim step --ticks 500 --seed 42`,
		RunE:         runStep,
		SilenceUsage: true,
	}

	cmd.Flags().Int("ticks", 1, "Number of ticks to advance")
	cmd.Flags().Int64("seed", 0, "Random seed (0 uses config, then startup time)")
	cmd.Flags().Bool("memory", false, "Keep the event log in memory instead of on disk")

	return cmd
}

func runStep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ticks, _ := cmd.Flags().GetInt("ticks")
	if ticks <= 0 {
		return fmt.Errorf("ticks must be greater than 0")
	}
	seed, _ := cmd.Flags().GetInt64("seed")
	inMemory, _ := cmd.Flags().GetBool("memory")

	backing, closeBacking, err := openBacking(cfg, inMemory)
	if err != nil {
		return err
	}
	defer closeBacking()

	eng := engine.New(topology.Default(), engine.Options{
		Seed:    resolveSeed(seed, cfg),
		Backing: backing,
	})

	for i := 0; i < ticks; i++ {
		eng.Tick()
	}

	printRunSummary(cmd, eng)
	return nil
}
