package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/sim"
)

// saleTimes returns the distinct instants at which any of the reports sold
// a container, in increasing order.
func saleTimes(reports []*sim.Report) []model.Time {
	seen := make(map[model.Time]bool)
	var out []model.Time
	for _, r := range reports {
		for _, o := range r.Outcomes {
			if o.Outcome == model.OutcomeSold && !seen[o.Time] {
				seen[o.Time] = true
				out = append(out, o.Time)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// cashCurve returns the cash of r right after each instant of times.
func cashCurve(r *sim.Report, times []model.Time) []int64 {
	sold := make([]model.TerminalEvent, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Outcome == model.OutcomeSold {
			sold = append(sold, o)
		}
	}
	sort.SliceStable(sold, func(i, j int) bool { return sold[i].Time < sold[j].Time })
	out := make([]int64, len(times))
	var cash int64
	next := 0
	for i, t := range times {
		for next < len(sold) && sold[next].Time <= t {
			cash += sold[next].Price
			next++
		}
		out[i] = cash
	}
	return out
}

// WriteCashChart renders an HTML line chart of the cumulative cash of every
// report over simulated time.
func WriteCashChart(w io.Writer, reports []*sim.Report) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Cash over time"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Tick"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Cash"}),
	)
	times := saleTimes(reports)
	xAxis := make([]string, len(times))
	for i, t := range times {
		xAxis[i] = strconv.FormatInt(int64(t), 10)
	}
	line.SetXAxis(xAxis)
	for _, r := range reports {
		curve := cashCurve(r, times)
		data := make([]opts.LineData, len(curve))
		for i, v := range curve {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(fmt.Sprintf("%s (%s)", r.Strategy, shortID(r.RunID)), data)
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
