package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/yard/config"
	"github.com/kilianp07/yard/core/audit"
	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/journal"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/ingest"
)

var (
	verifyInput string
	verifyLog   string
	verifyRun   string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Replay a recorded journal and check every action against the yard rules",
	Long: `Replay a recorded journal and check every action against the yard rules.

Without --log the configured journal store is read. A .jsonl log is read as
the structured journal; any other file is read as the plain text log.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyInput, "input", "i", "", "container list, overrides input.path")
	verifyCmd.Flags().StringVarP(&verifyLog, "log", "l", "", "journal file to verify")
	verifyCmd.Flags().StringVar(&verifyRun, "run", "", "only verify this run")
	rootCmd.AddCommand(verifyCmd)
}

// recordedRun is the journal of one run.
type recordedRun struct {
	id       string
	strategy string
	events   []events.ActionEvent
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := verifyInput
	if path == "" {
		path = cfg.Input.Path
	}
	if path == "" {
		return fmt.Errorf("no container list: set --input or input.path")
	}
	arrivals, err := ingest.Load(path)
	if err != nil {
		return err
	}
	registry := ingest.Registry(arrivals)

	var runs []recordedRun
	switch {
	case verifyLog == "":
		runs, err = storedRuns(cmd.Context(), cfg)
	case strings.EqualFold(filepath.Ext(verifyLog), ".jsonl"):
		runs, err = jsonlRuns(verifyLog)
	default:
		runs, err = textRun(cfg, verifyLog, registry, arrivals)
	}
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no recorded run found")
	}

	failed := 0
	for _, r := range runs {
		if err := verifyOne(cmd.OutOrStdout(), cfg, r, registry, arrivals); err != nil {
			failed++
			if _, werr := fmt.Fprintf(cmd.OutOrStdout(), "run %s (%s): %v\n", r.id, r.strategy, err); werr != nil {
				return werr
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed verification", failed, len(runs))
	}
	return nil
}

func verifyOne(w io.Writer, cfg *config.Config, r recordedRun, registry map[model.ContainerID]model.Container, arrivals []model.Arrival) error {
	st, err := strategyNamed(cfg, r.strategy)
	if err != nil {
		return err
	}
	classes := cfg.Yard.Classes
	if len(classes) == 0 {
		classes = ingest.Classes(arrivals)
	}
	res, err := audit.Verify(r.events, registry, st.Layout(classes), audit.Options{StepCost: model.Time(cfg.Simulation.StepCost)})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "run %s (%s): ok, %d actions, cash %d, sold %d, discarded %d, stacked %d, end %d\n",
		r.id, r.strategy, res.Actions, res.Cash, res.Sold, res.Discarded, res.Remaining, res.End)
	return err
}

func storedRuns(ctx context.Context, cfg *config.Config) ([]recordedRun, error) {
	if cfg.Journal.Backend == "memory" {
		return nil, fmt.Errorf("the memory journal keeps nothing to verify; pass --log")
	}
	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	evs, err := store.Query(ctx, journal.Query{RunID: verifyRun})
	if err != nil {
		return nil, err
	}
	return groupRuns(evs), nil
}

func jsonlRuns(path string) ([]recordedRun, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	evs, err := journal.ReadJSONL(f)
	if err != nil {
		return nil, err
	}
	return groupRuns(evs), nil
}

func textRun(cfg *config.Config, path string, registry map[model.ContainerID]model.Container, arrivals []model.Arrival) ([]recordedRun, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	log, err := journal.ParseText(f)
	if err != nil {
		return nil, err
	}
	st, err := strategyNamed(cfg, log.Name)
	if err != nil {
		return nil, fmt.Errorf("text log names strategy %q: %w", log.Name, err)
	}
	classes := cfg.Yard.Classes
	if len(classes) == 0 {
		classes = ingest.Classes(arrivals)
	}
	evs, err := log.Events(registry, st.Layout(classes).Keys())
	if err != nil {
		return nil, err
	}
	return []recordedRun{{id: filepath.Base(path), strategy: log.Name, events: evs}}, nil
}

// groupRuns splits events by run, keeping the order of first appearance,
// and drops runs other than --run when it is set.
func groupRuns(evs []events.ActionEvent) []recordedRun {
	var runs []recordedRun
	index := make(map[string]int)
	for _, ev := range evs {
		if verifyRun != "" && ev.RunID != verifyRun {
			continue
		}
		i, ok := index[ev.RunID]
		if !ok {
			i = len(runs)
			index[ev.RunID] = i
			runs = append(runs, recordedRun{id: ev.RunID, strategy: ev.Strategy})
		}
		runs[i].events = append(runs[i].events, ev)
	}
	return runs
}
