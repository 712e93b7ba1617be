package cmd

import (
	"os"

	cfgcmd "nathanbeddoewebdev/dcsim/cmd/commands/config"
	"nathanbeddoewebdev/dcsim/cmd/commands/eventlog"
	"nathanbeddoewebdev/dcsim/cmd/commands/history"
	"nathanbeddoewebdev/dcsim/cmd/commands/sim"
	"nathanbeddoewebdev/dcsim/cmd/commands/topo"
	"nathanbeddoewebdev/dcsim/internal/logging"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var verbose bool

	var cmd = &cobra.Command{
		Use:   "dcsim",
		Short: "A datacenter telemetry simulator with incident detection",
		Long: `dcsim simulates a small datacenter (racks of servers, switches, and PDUs),
generates plausible telemetry for it every tick, and detects threshold
incidents across thermal, airflow, power, network, and storage domains.
Incidents are recorded in a persistent append-only event log.

Quick start:
  dcsim sim run                    # Live dashboard over a running simulation
  dcsim sim step --ticks 100       # Advance headlessly and print a summary
  dcsim eventlog list              # Show recorded incidents
  dcsim topo show                  # Print the simulated topology`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(sim.NewCommand())
	cmd.AddCommand(eventlog.NewCommand())
	cmd.AddCommand(history.NewCommand())
	cmd.AddCommand(topo.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
