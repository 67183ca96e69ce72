package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Proton-105/himera-continuity/internal/continuity"
	"github.com/Proton-105/himera-continuity/internal/storage"
	"github.com/Proton-105/himera-continuity/pkg/config"
)

type backendRunner func(run func(cmd *cobra.Command, b *storage.Backend, cfg *config.Config) error) func(*cobra.Command, []string) error

func markerCmd(withBackend backendRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marker",
		Short: "Inspect or remove the restart marker",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the pending restart marker",
		Args:  cobra.NoArgs,
		RunE: withBackend(func(cmd *cobra.Command, b *storage.Backend, _ *config.Config) error {
			marker, err := continuity.NewMarkerRepository(b.Store, slog.Default()).Peek(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if marker == nil {
				fmt.Fprintln(out, color.New(color.FgGreen).Sprint("no restart marker"))
				return nil
			}

			fmt.Fprintf(out, "status chat:    %d\n", marker.StatusChatID)
			fmt.Fprintf(out, "status message: %d\n", marker.StatusMessageID)
			if marker.CreatedAtUs != 0 {
				age := time.Now().UnixMicro() - marker.CreatedAtUs
				fmt.Fprintf(out, "created at:     %s (%s ago)\n",
					time.UnixMicro(marker.CreatedAtUs).UTC().Format(time.RFC3339), continuity.FormatDurationUs(age))
			}

			if err := marker.Validate(); err != nil {
				fmt.Fprintln(out, color.New(color.FgRed).Sprintf("invalid: %v", err))
				return nil
			}
			fmt.Fprintln(out, color.New(color.FgYellow).Sprint("pending: will be reconciled on next startup"))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the restart marker so the next startup posts a fresh status",
		Args:  cobra.NoArgs,
		RunE: withBackend(func(cmd *cobra.Command, b *storage.Backend, _ *config.Config) error {
			if err := continuity.NewMarkerRepository(b.Store, slog.Default()).Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgGreen).Sprint("restart marker cleared"))
			return nil
		}),
	})

	return cmd
}
