package config

import (
	"nathanbeddoewebdev/dcsim/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dcsim configuration",
		Long: "View and modify persistent dcsim settings.\n\n" +
			"Configuration is stored at ~/.config/dcsim/config.json.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())

	return cmd
}
