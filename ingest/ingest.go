// Package ingest reads container arrival lists. Three formats are accepted:
// the legacy whitespace separated text format, YAML and JSON.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kilianp07/yard/core/model"
)

// ErrMalformed is returned for input that cannot be turned into arrivals.
var ErrMalformed = errors.New("malformed container input")

// Record is the flat form of one arrival in YAML and JSON documents.
type Record struct {
	ID       int64 `json:"id" yaml:"id"`
	Class    int   `json:"class" yaml:"class"`
	Price    int64 `json:"price" yaml:"price"`
	Arrival  int64 `json:"arrival" yaml:"arrival"`
	Deadline int64 `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Earliest int64 `json:"earliest" yaml:"earliest"`
	Latest   int64 `json:"latest" yaml:"latest"`
}

// ToModel converts the record.
func (r Record) ToModel() model.Arrival {
	return model.Arrival{
		Container: model.Container{
			ID:      model.ContainerID(r.ID),
			Class:   model.HeightClass(r.Class),
			Arrival: model.Time(r.Arrival),
			Window:  model.Window{Earliest: model.Time(r.Earliest), Latest: model.Time(r.Latest)},
			Price:   r.Price,
		},
		Deadline: model.Time(r.Deadline),
	}
}

// FromModel converts an arrival to its flat form.
func FromModel(a model.Arrival) Record {
	c := a.Container
	return Record{
		ID:       int64(c.ID),
		Class:    int(c.Class),
		Price:    c.Price,
		Arrival:  int64(c.Arrival),
		Deadline: int64(a.Deadline),
		Earliest: int64(c.Window.Earliest),
		Latest:   int64(c.Window.Latest),
	}
}

// Document is the YAML and JSON container list.
type Document struct {
	Containers []Record `json:"containers" yaml:"containers"`
}

// Format names an input format.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf guesses the format from a file extension. Unknown extensions are
// read as text.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Load reads and validates the arrivals stored at path.
func Load(path string) ([]model.Arrival, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var arrivals []model.Arrival
	switch FormatOf(path) {
	case FormatYAML:
		arrivals, err = ReadYAML(f)
	case FormatJSON:
		arrivals, err = ReadJSON(f)
	default:
		arrivals, err = ReadText(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := Validate(arrivals); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return arrivals, nil
}

// Validate checks every container record and rejects duplicate IDs and
// deadlines before the arrival.
func Validate(arrivals []model.Arrival) error {
	seen := make(map[model.ContainerID]int, len(arrivals))
	for i, a := range arrivals {
		c := a.Container
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: entry %d: %v", ErrMalformed, i+1, err)
		}
		if prev, ok := seen[c.ID]; ok {
			return fmt.Errorf("%w: entry %d: container %d already listed at entry %d", ErrMalformed, i+1, c.ID, prev)
		}
		seen[c.ID] = i + 1
		if a.Deadline != 0 && a.Deadline < c.Arrival {
			return fmt.Errorf("%w: entry %d: deadline %d before arrival %d", ErrMalformed, i+1, a.Deadline, c.Arrival)
		}
	}
	return nil
}

// SortByArrival orders arrivals by arrival time, keeping the input order
// among simultaneous arrivals.
func SortByArrival(arrivals []model.Arrival) {
	sort.SliceStable(arrivals, func(i, j int) bool {
		return arrivals[i].Container.Arrival < arrivals[j].Container.Arrival
	})
}

// Registry indexes the containers by ID.
func Registry(arrivals []model.Arrival) map[model.ContainerID]model.Container {
	out := make(map[model.ContainerID]model.Container, len(arrivals))
	for _, a := range arrivals {
		out[a.Container.ID] = a.Container
	}
	return out
}

// Classes returns the distinct height classes, in increasing order.
func Classes(arrivals []model.Arrival) []model.HeightClass {
	seen := make(map[model.HeightClass]bool)
	var out []model.HeightClass
	for _, a := range arrivals {
		if !seen[a.Container.Class] {
			seen[a.Container.Class] = true
			out = append(out, a.Container.Class)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
