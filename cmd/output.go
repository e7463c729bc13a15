package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kilianp07/yard/core/sim"
	"github.com/kilianp07/yard/pkg/export"
)

// writeReports prints the summary table to w and, when path is set, writes
// the per container outcomes there as CSV or JSON following the extension.
func writeReports(w io.Writer, reports []*sim.Report, path string) error {
	if err := export.WriteSummaryCSV(w, reports); err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	rows := export.Rows(reports...)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = export.WriteJSON(f, rows)
	} else {
		err = export.WriteCSV(f, rows)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write outcomes: %w", err)
	}
	return nil
}
