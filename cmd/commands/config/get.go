package config

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/dcsim/internal/config"
	"nathanbeddoewebdev/dcsim/internal/util"

	"github.com/spf13/cobra"
)

// GetCommand returns the "config get" command.
func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Get a configuration value",
		Long: "Get a persistent configuration value. Without a key, every setting\n" +
			"is listed.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  dcsim config get                  # list all values\n" +
			"  dcsim config get seed             # print a single value",
		Args:         cobra.MaximumNArgs(1),
		RunE:         runGet,
		SilenceUsage: true,
	}

	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// No key: list all values.
	if len(args) == 0 {
		for _, spec := range config.Keys {
			value := spec.Get(cfg)
			if value == "" || value == "0" {
				value = "(not set)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", spec.Name, value)
		}
		return nil
	}

	key := util.NormalizeKey(args[0])
	spec := config.Lookup(key)
	if spec == nil {
		return fmt.Errorf("unknown configuration key %q (valid: %s)", args[0], strings.Join(config.KeyNames(), ", "))
	}

	value := spec.Get(cfg)
	if value == "" || value == "0" {
		fmt.Fprintln(cmd.OutOrStdout(), "not set")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), value)
	}
	return nil
}
