package sim

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"nathanbeddoewebdev/dcsim/internal/config"
	"nathanbeddoewebdev/dcsim/internal/engine"
	"nathanbeddoewebdev/dcsim/internal/topology"
	"nathanbeddoewebdev/dcsim/internal/tui"

	"github.com/spf13/cobra"
)

// RunCommand returns the "sim run" command.
func RunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation with the live dashboard",
		Long: `Run the datacenter simulation at a fixed tick cadence with the live
dashboard attached. Incidents detected during the run are appended to the
persistent event log.

Examples:
  dcsim sim run
  dcsim sim run --seed 42 --interval 250
  dcsim sim run --headless --ticks 600`,
		RunE:         runRun,
		SilenceUsage: true,
	}

	cmd.Flags().Int64("seed", 0, "Random seed (0 uses config, then startup time)")
	cmd.Flags().Int("interval", 0, "Tick interval in milliseconds (0 uses config, then 1000)")
	cmd.Flags().Bool("headless", false, "Run without the dashboard")
	cmd.Flags().Int("ticks", 0, "Stop after this many ticks (headless only, 0 runs until interrupted)")
	cmd.Flags().Bool("memory", false, "Keep the event log in memory instead of on disk")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	seed, _ := cmd.Flags().GetInt64("seed")
	intervalMS, _ := cmd.Flags().GetInt("interval")
	headless, _ := cmd.Flags().GetBool("headless")
	ticks, _ := cmd.Flags().GetInt("ticks")
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
	clock := engine.NewClock(eng, resolveInterval(intervalMS, cfg))

	if headless {
		return runHeadless(cmd, eng, clock, ticks)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return clock.Run(ctx)
	})
	g.Go(func() error {
		// When the user quits the dashboard, stop the clock too.
		defer cancel()
		return tui.Run(eng, clock)
	})
	return g.Wait()
}

// runHeadless drives the clock without a dashboard until the tick limit is
// reached or the process is interrupted.
func runHeadless(cmd *cobra.Command, eng *engine.Engine, clock *engine.Clock, ticks int) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock.Start()
	defer clock.Stop()

	check := time.NewTicker(100 * time.Millisecond)
	defer check.Stop()

	for {
		select {
		case <-ctx.Done():
			printRunSummary(cmd, eng)
			return nil
		case <-check.C:
			if ticks > 0 && eng.Ticks() >= uint64(ticks) {
				printRunSummary(cmd, eng)
				return nil
			}
		}
	}
}

func printRunSummary(cmd *cobra.Command, eng *engine.Engine) {
	open := eng.OpenIncidents()
	fmt.Fprintf(cmd.OutOrStdout(), "Simulated %d ticks. %d open incident(s), datacenter severity %s.\n",
		eng.Ticks(), len(open), eng.Severity())
	for _, e := range open {
		fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s  %s\n", e.Severity, e.IncidentKey, e.Message)
	}
}
