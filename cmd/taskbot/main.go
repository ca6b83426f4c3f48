package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/taskbot/internal/config"
	"github.com/PabloGalante/taskbot/internal/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "taskbot",
		Short:         "Discord bot for shared tasks and daily reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "taskbot.yaml", "path to the YAML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger, err := observability.New(cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		observability.SetLogger(logger)
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newTasksCmd(load),
		newExportCmd(load),
	)
	return root
}
