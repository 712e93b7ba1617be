// Package eventlog implements the "dcsim eventlog" command group for
// inspecting, exporting, acknowledging, and clearing the persisted
// incident log.
package eventlog

import (
	"fmt"
	"log/slog"

	"nathanbeddoewebdev/dcsim/internal/config"
	"nathanbeddoewebdev/dcsim/internal/eventlog"
	"nathanbeddoewebdev/dcsim/internal/kv"

	"github.com/spf13/cobra"
)

// NewCommand returns the "eventlog" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eventlog",
		Short: "Inspect and manage the incident event log",
		Long: "View, export, acknowledge, and clear incidents recorded by the\n" +
			"simulation. The log is stored locally in ~/.config/dcsim/dcsim.db.",
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(ExportCommand())
	cmd.AddCommand(AckCommand())
	cmd.AddCommand(ClearCommand())

	return cmd
}

// openStore loads the persisted event log from the configured database.
func openStore() (*eventlog.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	var (
		backing *kv.SQLiteStore
	)
	if cfg.DBPath != "" {
		backing, err = kv.OpenAt(cfg.DBPath)
	} else {
		backing, err = kv.Open()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening event-log store: %w", err)
	}

	store := eventlog.NewStore(backing, slog.Default())
	store.Load()
	return store, func() { backing.Close() }, nil
}

// parseScope validates a user-supplied scope string.
func parseScope(s string) (eventlog.Scope, error) {
	switch eventlog.Scope(s) {
	case eventlog.ScopeAll, eventlog.ScopeOpen, eventlog.ScopeResolved:
		return eventlog.Scope(s), nil
	}
	return "", fmt.Errorf("unknown scope %q (want all, open, or resolved)", s)
}
