package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/taskbot/internal/adapters/storage"
	"github.com/PabloGalante/taskbot/internal/app/agenda"
	"github.com/PabloGalante/taskbot/internal/config"
	"github.com/PabloGalante/taskbot/internal/domain"
)

func newTasksCmd(load func() (*config.Config, error)) *cobra.Command {
	tasks := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect stored tasks",
	}

	var archived bool
	list := &cobra.Command{
		Use:   "list",
		Short: "Print upcoming tasks, or past ones with --archived",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, closeStore, err := storage.OpenStore(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			svc := agenda.NewService(store, cfg.Location())
			listed := svc.Upcoming()
			if archived {
				listed = svc.Archived()
			}
			return printTasks(cmd.OutOrStdout(), listed, cfg)
		},
	}
	list.Flags().BoolVar(&archived, "archived", false, "list tasks whose time has passed")

	tasks.AddCommand(list)
	return tasks
}

func printTasks(w io.Writer, tasks []domain.Task, cfg *config.Config) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "no tasks")
		return err
	}
	for _, t := range tasks {
		if _, err := fmt.Fprintf(w, "%s  %s\n", domain.FormatDateTime(t.At.In(cfg.Location())), t.Title()); err != nil {
			return err
		}
	}
	return nil
}

func newExportCmd(load func() (*config.Config, error)) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored data to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, closeStore, err := storage.OpenStore(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			return writeExport(cmd.OutOrStdout(), store.Snapshot(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}

// writeExport renders snap with the same keys the JSON backup uses.
func writeExport(w io.Writer, snap domain.Snapshot, format string) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	switch format {
	case "json":
		_, err = fmt.Fprintln(w, string(raw))
		return err
	case "yaml":
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
