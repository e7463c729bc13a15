// Package export writes run results in formats consumed outside the yard.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/sim"
)

// OutcomeRow is one terminal outcome of a run.
type OutcomeRow struct {
	RunID       string            `json:"run_id"`
	Strategy    string            `json:"strategy"`
	ContainerID model.ContainerID `json:"container_id"`
	Class       model.HeightClass `json:"class"`
	Outcome     model.Outcome     `json:"outcome"`
	Arrival     model.Time        `json:"arrival"`
	Time        model.Time        `json:"time"`
	Price       int64             `json:"price"`
}

// Rows flattens the outcomes of the given reports.
func Rows(reports ...*sim.Report) []OutcomeRow {
	var rows []OutcomeRow
	for _, r := range reports {
		for _, o := range r.Outcomes {
			rows = append(rows, OutcomeRow{
				RunID:       r.RunID,
				Strategy:    r.Strategy,
				ContainerID: o.ContainerID,
				Class:       o.Class,
				Outcome:     o.Outcome,
				Arrival:     o.Arrival,
				Time:        o.Time,
				Price:       o.Price,
			})
		}
	}
	return rows
}

// WriteJSON writes the outcome rows to w in JSON format.
func WriteJSON(w io.Writer, rows []OutcomeRow) error {
	enc := json.NewEncoder(w)
	return enc.Encode(rows)
}

// WriteCSV writes the outcome rows to w in CSV format with a header line.
func WriteCSV(w io.Writer, rows []OutcomeRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"run_id", "strategy", "container_id", "class", "outcome", "arrival", "time", "dwell", "price"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.RunID,
			r.Strategy,
			strconv.FormatInt(int64(r.ContainerID), 10),
			strconv.Itoa(int(r.Class)),
			r.Outcome.String(),
			strconv.FormatInt(int64(r.Arrival), 10),
			strconv.FormatInt(int64(r.Time), 10),
			strconv.FormatInt(int64(r.Time-r.Arrival), 10),
			strconv.FormatInt(r.Price, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes one line per report.
func WriteSummaryCSV(w io.Writer, reports []*sim.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"run_id", "strategy", "cash", "sold", "discarded", "remaining", "moves", "end", "dwell_mean", "max_pile_height"}); err != nil {
		return err
	}
	for _, r := range reports {
		rec := []string{
			r.RunID,
			r.Strategy,
			strconv.FormatInt(r.Cash, 10),
			strconv.Itoa(r.Sold),
			strconv.Itoa(r.Discarded),
			strconv.Itoa(r.Remaining),
			strconv.Itoa(r.Moves),
			strconv.FormatInt(int64(r.End), 10),
			strconv.FormatFloat(r.Stats.DwellMean, 'f', 2, 64),
			strconv.Itoa(r.Stats.MaxPileHeight),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
