package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/yard/ingest"
	"github.com/kilianp07/yard/workload"
)

var (
	genOut   string
	genCount int
	genSeed  int64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random container list",
	Long: `Generate a random container list from the workload settings.

The output format follows the file extension: .yaml, .yml, .json, anything
else is the plain text format. Without --out the text format is printed.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "output file")
	generateCmd.Flags().IntVarP(&genCount, "count", "n", 0, "number of containers, overrides workload.count")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "random seed, overrides workload.seed")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	wc := cfg.Workload
	if genCount > 0 {
		wc.Count = genCount
	}
	if genSeed != 0 {
		wc.Seed = genSeed
	}
	if len(cfg.Yard.Classes) > 0 {
		wc.Classes = cfg.Yard.Classes
	}
	arrivals, err := workload.Generate(wc)
	if err != nil {
		return err
	}

	if genOut == "" {
		return ingest.WriteText(cmd.OutOrStdout(), arrivals)
	}
	f, err := os.Create(genOut)
	if err != nil {
		return err
	}
	switch ingest.FormatOf(genOut) {
	case ingest.FormatYAML:
		err = ingest.WriteYAML(f, arrivals)
	case ingest.FormatJSON:
		err = ingest.WriteJSON(f, arrivals)
	default:
		err = ingest.WriteText(f, arrivals)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", genOut, err)
	}
	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d containers to %s\n", len(arrivals), genOut)
	return err
}
