package eventlog

import (
	"fmt"
	"time"

	"nathanbeddoewebdev/dcsim/internal/export"

	"github.com/spf13/cobra"
)

func ExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the event log to a file",
		Long: `Export the event log to a file in the current directory (or --dir).

The json format writes a pretty-printed array of the requested scope,
sorted by timestamp. The ndjson format writes one object per line and
always contains only the currently-open incidents.

Examples:
  dcsim eventlog export
  dcsim eventlog export --scope open
  dcsim eventlog export --format ndjson --dir /tmp`,
		RunE:         runExport,
		SilenceUsage: true,
	}

	cmd.Flags().String("scope", "all", "Which entries to export: all, open, or resolved (json only)")
	cmd.Flags().String("format", "json", "Output format: json or ndjson")
	cmd.Flags().String("dir", ".", "Directory to write the export into")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	scopeRaw, _ := cmd.Flags().GetString("scope")
	scope, err := parseScope(scopeRaw)
	if err != nil {
		return err
	}
	formatRaw, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatRaw)
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("dir")

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	path, err := export.File(dir, scope, format, time.Now(), store.Entries(scope), store.Open())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}
