package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/yard/core/model"
)

// ReadText parses the legacy format, one container per line:
//
//	id size value arrival_start arrival_end delivery_start delivery_end
//
// size is the height class and value the price. The arrival range end
// becomes the arrival deadline. Blank lines and lines starting with # are
// skipped.
func ReadText(r io.Reader) ([]model.Arrival, error) {
	var out []model.Arrival
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 7 {
			return nil, fmt.Errorf("%w: line %d: expected 7 fields, got %d", ErrMalformed, line, len(fields))
		}
		var v [7]int64
		for i, f := range fields {
			n, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: field %d: %q is not an integer", ErrMalformed, line, i+1, f)
			}
			v[i] = n
		}
		rec := Record{
			ID:       v[0],
			Class:    int(v[1]),
			Price:    v[2],
			Arrival:  v[3],
			Deadline: v[4],
			Earliest: v[5],
			Latest:   v[6],
		}
		a := rec.ToModel()
		if err := a.Container.Validate(); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		out = append(out, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteText writes arrivals in the legacy format. An arrival without a
// deadline gets its arrival time as the range end.
func WriteText(w io.Writer, arrivals []model.Arrival) error {
	bw := bufio.NewWriter(w)
	for _, a := range arrivals {
		r := FromModel(a)
		if r.Deadline == 0 {
			r.Deadline = r.Arrival
		}
		if _, err := fmt.Fprintf(bw, "%d %d %d %d %d %d %d\n",
			r.ID, r.Class, r.Price, r.Arrival, r.Deadline, r.Earliest, r.Latest); err != nil {
			return err
		}
	}
	return bw.Flush()
}
