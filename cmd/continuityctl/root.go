package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Proton-105/himera-continuity/internal/storage"
	"github.com/Proton-105/himera-continuity/pkg/config"
)

// opener connects to the store a command works on.
type opener func(ctx context.Context, configPath string) (*storage.Backend, *config.Config, error)

func newRootCmd(open opener) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "continuityctl",
		Short:         "Inspect the restart marker and session snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./configs/$APP_ENV.yaml)")

	withBackend := func(run func(cmd *cobra.Command, b *storage.Backend, cfg *config.Config) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			b, cfg, err := open(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer b.Close(cmd.Context())

			return run(cmd, b, cfg)
		}
	}

	root.AddCommand(markerCmd(withBackend), snapshotCmd(withBackend))
	return root
}

func openBackend(ctx context.Context, configPath string) (*storage.Backend, *config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath == "" {
		cfg, _, err = config.Load()
	} else {
		cfg, _, err = config.LoadFile(configPath, envOr("APP_ENV", "development"))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if os.Getenv("CONTINUITYCTL_DEBUG") != "" {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	b, err := storage.Open(ctx, *cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return b, cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
