package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"attendance-bot/config"
	"attendance-bot/internal/store"
)

func newConvertCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var to, out string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Copy the configured ledger into another backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			src, err := store.NewBackend(cfg)
			if err != nil {
				return err
			}

			if to != "sql" && out == "" {
				return fmt.Errorf("--out is required for the %s backend", to)
			}
			target := *cfg
			target.Ledger.Backend = to
			target.Ledger.Path = out
			if to == cfg.Ledger.Backend && (to == "sql" || out == cfg.Ledger.Path) {
				return fmt.Errorf("source and target ledger are the same")
			}
			dst, err := store.NewBackend(&target)
			if err != nil {
				return err
			}

			n, err := convertLedger(ctx, src, dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %d rows from %s to %s\n", n, cfg.Ledger.Backend, to)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target backend: csv, xlsx or sql")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Target file for csv/xlsx (sql uses the database section)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// convertLedger copies every row of src into dst, replacing dst's contents.
func convertLedger(ctx context.Context, src, dst store.Backend) (int, error) {
	rows, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading source ledger: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := dst.Save(ctx, rows); err != nil {
		return 0, fmt.Errorf("saving target ledger: %w", err)
	}
	return len(rows), nil
}
