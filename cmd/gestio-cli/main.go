package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gestio-erp/gestio-erp/internal/app"
	"github.com/gestio-erp/gestio-erp/internal/fec"
	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
	"github.com/gestio-erp/gestio-erp/internal/platform/db"
)

func main() {
	root := &cobra.Command{
		Use:           "gestio-cli",
		Short:         "Gestio back-office tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newExportCmd() *cobra.Command {
	var (
		fromFlag string
		toFlag   string
		outDir   string
	)
	cmd := &cobra.Command{
		Use:   "export-fec",
		Short: "Write the regulatory entry file for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := time.Parse("2006-01-02", fromFlag)
			if err != nil {
				return fmt.Errorf("parse --from: %w", err)
			}
			to, err := time.Parse("2006-01-02", toFlag)
			if err != nil {
				return fmt.Errorf("parse --to: %w", err)
			}
			if to.Before(from) {
				return fmt.Errorf("--to precedes --from")
			}

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			pool, err := db.New(ctx, cfg.DBConfig())
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			exporter := fec.NewExporter(entries.NewRepository(pool), accounts.NewRepository(pool))

			// Statutory file name: <siren>FEC<closing date>.txt
			name := fmt.Sprintf("%sFEC%s.txt", cfg.FECSiren, to.Format("20060102"))
			path := filepath.Join(outDir, name)
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := exporter.WriteRange(ctx, f, from, to); err != nil {
				f.Close()
				os.Remove(path)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromFlag, "from", "", "period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "period end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
