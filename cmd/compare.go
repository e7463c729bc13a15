package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/yard/pkg/export"
)

var (
	compareInput      string
	compareStrategies []string
	compareOutcomes   string
	compareFollow     bool
	compareChart      string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run several strategies over the same container list",
	Args:  cobra.NoArgs,
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringVarP(&compareInput, "input", "i", "", "container list, overrides input.path")
	compareCmd.Flags().StringSliceVarP(&compareStrategies, "strategies", "s", []string{"simple", "expert"}, "strategies to compare")
	compareCmd.Flags().StringVarP(&compareOutcomes, "outcomes", "o", "", "write per container outcomes to this csv or json file")
	compareCmd.Flags().StringVar(&compareChart, "chart", "", "write an html chart of cash over time to this file")
	compareCmd.Flags().BoolVarP(&compareFollow, "follow", "f", false, "log every action as it happens")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, closeSvc, err := newService(cfg)
	if err != nil {
		return err
	}
	defer closeSvc()
	svc.ServeMetrics(ctx)

	arrivals, err := svc.Arrivals(compareInput)
	if err != nil {
		return err
	}
	strategies, err := svc.Strategies(compareStrategies...)
	if err != nil {
		return err
	}
	if compareFollow {
		defer follow(svc)()
	}
	reports, err := svc.Compare(ctx, arrivals, strategies...)
	if err != nil {
		return err
	}
	if err := writeReports(cmd.OutOrStdout(), reports, compareOutcomes); err != nil {
		return err
	}
	if compareChart == "" {
		return nil
	}
	f, err := os.Create(compareChart)
	if err != nil {
		return err
	}
	if err := export.WriteCashChart(f, reports); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
