package eventlog

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func ClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded events",
		Long: `Delete every entry from the event log, including open incidents.
Prompts for confirmation unless --yes is given.

Examples:
  dcsim eventlog clear
  dcsim eventlog clear --yes`,
		RunE:         runClear,
		SilenceUsage: true,
	}

	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runClear(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if store.Len() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Event log is already empty.")
		return nil
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		confirm := false
		field := huh.NewConfirm().
			Title(fmt.Sprintf("Delete all %d event(s)? This action cannot be undone.", store.Len())).
			Affirmative("Yes, clear").
			Negative("Cancel").
			Value(&confirm)
		if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
			return err
		}
		if !confirm {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	store.Clear()
	fmt.Fprintln(cmd.OutOrStdout(), "Event log cleared.")
	return nil
}
