// Package topo implements the "dcsim topo" command group for inspecting
// the simulated datacenter topology.
package topo

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"nathanbeddoewebdev/dcsim/internal/topology"

	"github.com/spf13/cobra"
)

// NewCommand returns the "topo" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "topo",
		Short:        "Inspect the simulated datacenter topology",
		SilenceUsage: true,
	}

	cmd.AddCommand(ShowCommand())

	return cmd
}

// ShowCommand returns the "topo show" command.
func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the datacenter topology",
		Long: `Print every rack and device of the simulated datacenter, with sensor
counts per category.

Examples:
  dcsim topo show
  dcsim topo show -o json`,
		RunE:         runShow,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	dc := topology.Default()

	if output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(dc)
	}
	if output != "table" && output != "" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s  (%d racks)\n\n", dc.Name, len(dc.Racks))

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RACK\tDEVICE\tTYPE\tNAME\tTEMPS\tFANS\tRAILS\tPORTS\tDRIVES\tBUDGET")
	fmt.Fprintln(w, "----\t------\t----\t----\t-----\t----\t-----\t-----\t------\t------")
	for _, rack := range dc.Racks {
		for _, dev := range rack.Devices {
			budget := "-"
			if dev.Powered() {
				budget = fmt.Sprintf("%.0fW", dev.Budget())
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
				rack.ID, dev.ID, dev.Type, dev.Name,
				len(dev.TempSensors), len(dev.FanSensors), len(dev.VoltageRails),
				len(dev.Ports), len(dev.Drives), budget)
		}
		s := rack.Summary()
		fmt.Fprintf(w, "%s\t\t\tsensors: %d temp, %d cooling, %d power, %d net, %d storage (%d total)\t\t\t\t\t\t\n",
			rack.ID, s.Temperature, s.Cooling, s.Power, s.Network, s.Storage, s.Total)
	}
	w.Flush()
	return nil
}
