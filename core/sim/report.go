package sim

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
)

// ErrConservation is returned when the containers placed do not add up to
// the ones sold, discarded and still stacked.
var ErrConservation = errors.New("container conservation violated")

// Report summarises one run.
type Report struct {
	RunID     string                `json:"run_id"`
	Strategy  string                `json:"strategy"`
	Arrivals  int                   `json:"arrivals"`
	Placed    int                   `json:"placed"`
	Actions   int                   `json:"actions"`
	Moves     int                   `json:"moves"`
	Sold      int                   `json:"sold"`
	Discarded int                   `json:"discarded"`
	Remaining int                   `json:"remaining"`
	Cash      int64                 `json:"cash"`
	End       model.Time            `json:"end"`
	Outcomes  []model.TerminalEvent `json:"outcomes"`
	Occupancy storage.Snapshot      `json:"occupancy"`
	Stats     Stats                 `json:"stats"`
}

// Stats holds derived figures of a run. Dwell is the time between arrival
// and sale or discard.
type Stats struct {
	SoldRatio     float64 `json:"sold_ratio"`
	LostValue     int64   `json:"lost_value"`
	DwellMean     float64 `json:"dwell_mean"`
	DwellStdDev   float64 `json:"dwell_stddev"`
	DwellMedian   float64 `json:"dwell_median"`
	DwellP90      float64 `json:"dwell_p90"`
	MaxPileHeight int     `json:"max_pile_height"`
}

func (r *Report) conserved() error {
	if r.Sold+r.Discarded+r.Remaining != r.Placed {
		return fmt.Errorf("%w: %d placed, %d sold, %d discarded, %d stacked",
			ErrConservation, r.Placed, r.Sold, r.Discarded, r.Remaining)
	}
	return nil
}

func computeStats(outcomes []model.TerminalEvent, maxHeight int) Stats {
	s := Stats{MaxPileHeight: maxHeight}
	if len(outcomes) == 0 {
		return s
	}
	dwell := make([]float64, len(outcomes))
	sold := 0
	for i, o := range outcomes {
		dwell[i] = float64(o.Dwell())
		if o.Outcome == model.OutcomeSold {
			sold++
		} else {
			s.LostValue += o.Price
		}
	}
	s.SoldRatio = float64(sold) / float64(len(outcomes))
	s.DwellMean, s.DwellStdDev = stat.MeanStdDev(dwell, nil)
	if len(dwell) < 2 {
		s.DwellStdDev = 0
	}
	sort.Float64s(dwell)
	s.DwellMedian = stat.Quantile(0.5, stat.Empirical, dwell, nil)
	s.DwellP90 = stat.Quantile(0.9, stat.Empirical, dwell, nil)
	return s
}
