package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"voicescout/internal/config"
)

var (
	configForce bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	configInitCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit,
	}
)

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path == "" {
		path = "(none, using defaults)"
	}
	fmt.Fprintf(out, "Config file: %s\n%s\n", path, cfg.Summary())
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigPath()
	if len(args) == 1 {
		path = args[0]
	}

	if !configForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
