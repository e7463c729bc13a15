package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/yard/core/model"
)

// ReadYAML decodes a YAML document. Unknown keys are rejected.
func ReadYAML(r io.Reader) ([]model.Arrival, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return doc.arrivals(), nil
}

// ReadJSON decodes a JSON document. Unknown keys are rejected.
func ReadJSON(r io.Reader) ([]model.Arrival, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return doc.arrivals(), nil
}

// WriteYAML encodes arrivals as a YAML document.
func WriteYAML(w io.Writer, arrivals []model.Arrival) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(arrivals)); err != nil {
		return err
	}
	return enc.Close()
}

// WriteJSON encodes arrivals as an indented JSON document.
func WriteJSON(w io.Writer, arrivals []model.Arrival) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(arrivals))
}

// NewDocument builds the document form of arrivals.
func NewDocument(arrivals []model.Arrival) Document {
	doc := Document{Containers: make([]Record, len(arrivals))}
	for i, a := range arrivals {
		doc.Containers[i] = FromModel(a)
	}
	return doc
}

func (d Document) arrivals() []model.Arrival {
	out := make([]model.Arrival, len(d.Containers))
	for i, r := range d.Containers {
		out[i] = r.ToModel()
	}
	return out
}
