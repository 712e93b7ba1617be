package eventlog

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"nathanbeddoewebdev/dcsim/internal/eventlog"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded incident events",
		Long: `List incident events from the persisted log, newest last.

Examples:
  dcsim eventlog list
  dcsim eventlog list --scope open
  dcsim eventlog list --limit 50 -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().String("scope", "all", "Which entries to list: all, open, or resolved")
	cmd.Flags().Int("limit", 25, "Number of entries to display (0 shows everything)")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	scopeRaw, _ := cmd.Flags().GetString("scope")
	scope, err := parseScope(scopeRaw)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = "table"
	}

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	entries := store.Entries(scope)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	if output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}
	if output != "table" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No events found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSEV\tSTATE\tCODE\tINCIDENT\tACK\tMESSAGE")
	fmt.Fprintln(w, "----\t---\t-----\t----\t--------\t---\t-------")
	for _, e := range entries {
		ack := "-"
		if e.AckedAt != nil {
			ack = e.AckedAt.Local().Format("15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Severity,
			e.State,
			e.Code,
			e.IncidentKey,
			ack,
			e.Message,
		)
	}
	w.Flush()

	if scope == eventlog.ScopeAll {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d event(s), %d open incident(s).\n", store.Len(), store.OpenCount())
	}
	return nil
}
