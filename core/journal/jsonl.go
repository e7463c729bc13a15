package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/kilianp07/yard/core/events"
)

// JSONLStore stores records in a JSONL file, one action per line.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONLStore creates the file at path when missing. Existing content is
// kept and new records are appended.
func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

// Append writes one line.
func (s *JSONLStore) Append(_ context.Context, ev events.ActionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(ev)
}

// Query scans the file and returns the matching records.
func (s *JSONLStore) Query(ctx context.Context, q Query) ([]events.ActionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return scanJSONL(ctx, f, q, nil)
}

// Close implements Store.
func (s *JSONLStore) Close() error { return nil }

// ReadJSONL decodes every record of a JSONL stream. Unlike Query it fails on
// the first malformed line.
func ReadJSONL(r io.Reader) ([]events.ActionEvent, error) {
	var res []events.ActionEvent
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var ev events.ActionEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		res = append(res, ev)
	}
	return res, scanner.Err()
}

// scanJSONL appends the matching records of r to res. Lines that do not
// decode are skipped.
func scanJSONL(ctx context.Context, r io.Reader, q Query, res []events.ActionEvent) ([]events.ActionEvent, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var ev events.ActionEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		if q.Match(ev) {
			res = append(res, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
