package eventlog

import (
	"fmt"

	"github.com/spf13/cobra"
)

func AckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ack <incident-key>",
		Short: "Acknowledge an open incident",
		Long: `Mark an open incident as acknowledged. The acknowledgement timestamp is
stamped onto the incident's open entry; the incident itself stays open
until its condition clears.

Examples:
  dcsim eventlog ack thermal:THERMAL_WARN:rack-01:srv-01:-`,
		Args:         cobra.ExactArgs(1),
		RunE:         runAck,
		SilenceUsage: true,
	}

	return cmd
}

func runAck(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	entry, err := store.Acknowledge(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Acknowledged %s (%s)\n", entry.IncidentKey, entry.Message)
	return nil
}
