package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/volblock/internal/config"
)

var configOpts struct {
	write    bool
	force    bool
	defaults bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print or write the configuration",
	Long: `Print the effective configuration as TOML.

With --write the configuration is saved to the config path, creating
parent directories as needed. An existing file is only replaced with --force.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().BoolVar(&configOpts.write, "write", false,
		"Write the configuration to the config path")
	configCmd.Flags().BoolVar(&configOpts.force, "force", false,
		"Overwrite an existing config file")
	configCmd.Flags().BoolVar(&configOpts.defaults, "defaults", false,
		"Use the built-in defaults instead of the loaded config")
}

func runConfig(cmd *cobra.Command, args []string) error {
	c := cfg
	if configOpts.defaults {
		c = config.DefaultConfig()
	}

	if !configOpts.write {
		data, err := c.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	path := globalOpts.configPath
	if path == "" {
		path = config.ConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !configOpts.force {
		return fmt.Errorf("config file %s already exists (use --force to replace it)", path)
	}

	if err := c.Save(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
