package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Proton-105/himera-continuity/internal/continuity"
	"github.com/Proton-105/himera-continuity/internal/storage"
	"github.com/Proton-105/himera-continuity/pkg/config"
)

func snapshotCmd(withBackend backendRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect the persisted session snapshot",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the counters and a digest of the stored session",
		Args:  cobra.NoArgs,
		RunE: withBackend(func(cmd *cobra.Command, b *storage.Backend, cfg *config.Config) error {
			repo := continuity.NewSnapshotRepository(b.Store, cfg.Bot.Token)
			out := cmd.OutOrStdout()

			snap, err := repo.Load(cmd.Context())
			if errors.Is(err, continuity.ErrNoSnapshot) {
				fmt.Fprintln(out, color.New(color.FgYellow).Sprint("no session snapshot"))
				return nil
			}
			if err != nil {
				return err
			}

			digest := sha256.Sum256(snap.Session)
			fmt.Fprintf(out, "document: %s\n", repo.ID())
			fmt.Fprintf(out, "session:  %d bytes, sha256 %s\n", len(snap.Session), hex.EncodeToString(digest[:8]))
			fmt.Fprintf(out, "pts:      %d\n", snap.Pts)
			fmt.Fprintf(out, "qts:      %d\n", snap.Qts)
			fmt.Fprintf(out, "seq:      %d\n", snap.Seq)
			if snap.Date != 0 {
				fmt.Fprintf(out, "date:     %s\n", time.Unix(snap.Date, 0).UTC().Format(time.RFC3339))
			}
			return nil
		}),
	})

	return cmd
}
