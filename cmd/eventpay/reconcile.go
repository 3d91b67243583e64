package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/DanielPopoola/eventpay/internal/application/reconciliation"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	var (
		gw       string
		from, to string
		window   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare local transactions with a provider's records",
		Long: `Compare local transactions with what a provider reports for the same window
and print the discrepancies as JSON. Exits non-zero when any are found.

Examples:
  eventpay reconcile --gateway neonet
  eventpay reconcile --gateway bam --from 2026-03-01T00:00:00Z --to 2026-03-02T00:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := domain.ParseGateway(gw)
			if err != nil {
				return err
			}

			end := time.Now().UTC()
			if to != "" {
				if end, err = time.Parse(time.RFC3339, to); err != nil {
					return fmt.Errorf("--to: %w", err)
				}
			}
			start := end.Add(-window)
			if from != "" {
				if start, err = time.Parse(time.RFC3339, from); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}

			ctx := cmd.Context()
			a, err := loadApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := reconciliation.NewService(a.store, a.gateways, a.breakers, a.clock, a.logger)
			report, err := svc.Reconcile(ctx, g, start, end)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.Clean() {
				return fmt.Errorf("%d discrepancies found", len(report.Discrepancies))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&gw, "gateway", "g", "", "gateway to reconcile (required)")
	cmd.Flags().StringVar(&from, "from", "", "window start, RFC 3339 (default: --window before --to)")
	cmd.Flags().StringVar(&to, "to", "", "window end, RFC 3339 (default: now)")
	cmd.Flags().DurationVar(&window, "window", 24*time.Hour, "window length when --from is not given")
	_ = cmd.MarkFlagRequired("gateway")
	return cmd
}
