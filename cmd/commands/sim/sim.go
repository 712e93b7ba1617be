// Package sim implements the "dcsim sim" command group: running the live
// simulation dashboard and advancing the simulation headlessly.
package sim

import (
	"fmt"
	"time"

	"nathanbeddoewebdev/dcsim/internal/config"
	"nathanbeddoewebdev/dcsim/internal/kv"

	"github.com/spf13/cobra"
)

// NewCommand returns the "sim" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "sim",
		Short:        "Run or step the datacenter simulation",
		SilenceUsage: true,
	}

	cmd.AddCommand(RunCommand())
	cmd.AddCommand(StepCommand())

	return cmd
}

// resolveSeed picks the effective seed: flag beats config, and zero derives
// from the wall clock so unseeded runs differ.
func resolveSeed(flagSeed int64, cfg *config.Config) int64 {
	seed := flagSeed
	if seed == 0 {
		seed = cfg.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return seed
}

// resolveInterval picks the tick cadence: flag beats config.
func resolveInterval(flagMS int, cfg *config.Config) time.Duration {
	if flagMS > 0 {
		return time.Duration(flagMS) * time.Millisecond
	}
	return cfg.Interval()
}

// openBacking opens the event-log persistence store. With inMemory the log
// does not survive the process; otherwise the SQLite store is used, at the
// configured path when one is set.
func openBacking(cfg *config.Config, inMemory bool) (kv.Store, func(), error) {
	if inMemory {
		return kv.NewMemory(), func() {}, nil
	}
	var (
		s   *kv.SQLiteStore
		err error
	)
	if cfg.DBPath != "" {
		s, err = kv.OpenAt(cfg.DBPath)
	} else {
		s, err = kv.Open()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening event-log store: %w", err)
	}
	return s, func() { s.Close() }, nil
}
