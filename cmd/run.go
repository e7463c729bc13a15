package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/yard/app"
	"github.com/kilianp07/yard/core/factory"
	"github.com/kilianp07/yard/core/sim"
)

var (
	runInput    string
	runStrategy string
	runOutcomes string
	runFollow   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate the configured strategy over a container list",
	Args:  cobra.NoArgs,
	RunE:  runSim,
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "container list, overrides input.path")
	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy type, overrides strategy.type")
	runCmd.Flags().StringVarP(&runOutcomes, "outcomes", "o", "", "write per container outcomes to this csv or json file")
	runCmd.Flags().BoolVarP(&runFollow, "follow", "f", false, "log every action as it happens")
	rootCmd.AddCommand(runCmd)
}

func runSim(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runStrategy != "" && runStrategy != cfg.Strategy.Type {
		cfg.Strategy = factory.ModuleConfig{Type: runStrategy}
	}
	svc, closeSvc, err := newService(cfg)
	if err != nil {
		return err
	}
	defer closeSvc()
	svc.ServeMetrics(ctx)

	arrivals, err := svc.Arrivals(runInput)
	if err != nil {
		return err
	}
	if runFollow {
		defer follow(svc)()
	}
	rep, err := svc.Run(ctx, arrivals)
	if err != nil {
		return err
	}
	return writeReports(cmd.OutOrStdout(), []*sim.Report{rep}, runOutcomes)
}

// follow logs the actions published on the service bus until the returned
// function is called.
func follow(svc *app.Service) func() {
	bus := svc.Bus()
	sub := bus.SubscribeBuffered(1024)
	log := svc.Logger("follow")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sub {
			fields := map[string]any{
				"run":       ev.RunID,
				"strategy":  ev.Strategy,
				"time":      int64(ev.Time),
				"container": int64(ev.Container.ID),
				"cash":      ev.Cash,
			}
			if ev.From != nil {
				fields["from"] = ev.From.String()
			}
			if ev.To != nil {
				fields["to"] = ev.To.String()
			}
			log.Infow(string(ev.Type), fields)
		}
	}()
	return func() {
		bus.Unsubscribe(sub)
		<-done
		if n := bus.Dropped(); n > 0 {
			log.Warnf("%d actions were not shown", n)
		}
	}
}
