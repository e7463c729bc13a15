package journal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/kilianp07/yard/core/events"
	"github.com/kilianp07/yard/core/model"
	"github.com/kilianp07/yard/core/storage"
)

// ErrMalformedLog is returned when a text log cannot be parsed or does not
// fit the containers and piles it is replayed against.
var ErrMalformedLog = errors.New("malformed text log")

// TextOp is the verb of a text log line.
type TextOp string

const (
	OpStart  TextOp = "START"
	OpAdd    TextOp = "ADD"
	OpMove   TextOp = "MOVE"
	OpRemove TextOp = "REMOVE"
	OpCash   TextOp = "CASH"
)

// TextWriter writes the plain text log:
//
//	0 START <name> <width>
//	<t> ADD <id> <pile>
//	<t> MOVE <id> <pile>
//	<t> REMOVE <id>
//	<t> CASH <cash>
//
// Piles are numbered by their position in the sorted key list and width is
// the number of piles. A CASH line follows every sale.
type TextWriter struct {
	mu      sync.Mutex
	w       *bufio.Writer
	closer  io.Closer
	ordinal map[storage.PileKey]int
}

// NewTextWriter writes the START header and returns the writer. When w is
// also an io.Closer it is closed by Close.
func NewTextWriter(w io.Writer, name string, keys []storage.PileKey) (*TextWriter, error) {
	tw := &TextWriter{w: bufio.NewWriter(w), ordinal: make(map[storage.PileKey]int, len(keys))}
	if c, ok := w.(io.Closer); ok {
		tw.closer = c
	}
	for i, k := range keys {
		tw.ordinal[k] = i
	}
	if strings.ContainsAny(name, " \t\n") || name == "" {
		return nil, fmt.Errorf("text log name %q must be a single word", name)
	}
	if _, err := fmt.Fprintf(tw.w, "0 %s %s %d\n", OpStart, name, len(keys)); err != nil {
		return nil, err
	}
	return tw, nil
}

func (t *TextWriter) pile(k *storage.PileKey) (int, error) {
	if k == nil {
		return 0, fmt.Errorf("%w: missing destination pile", storage.ErrInvalidPileKey)
	}
	p, ok := t.ordinal[*k]
	if !ok {
		return 0, fmt.Errorf("%w: %s", storage.ErrInvalidPileKey, k)
	}
	return p, nil
}

// Append writes the lines for one action.
func (t *TextWriter) Append(_ context.Context, ev events.ActionEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var err error
	switch ev.Type {
	case model.ActionPlace, model.ActionMove:
		op := OpAdd
		if ev.Type == model.ActionMove {
			op = OpMove
		}
		var p int
		if p, err = t.pile(ev.To); err != nil {
			return err
		}
		_, err = fmt.Fprintf(t.w, "%d %s %d %d\n", ev.Time, op, ev.Container.ID, p)
	case model.ActionSell:
		_, err = fmt.Fprintf(t.w, "%d %s %d\n%d %s %d\n", ev.Time, OpRemove, ev.Container.ID, ev.Time, OpCash, ev.Cash)
	case model.ActionDiscard:
		_, err = fmt.Fprintf(t.w, "%d %s %d\n", ev.Time, OpRemove, ev.Container.ID)
	default:
		err = fmt.Errorf("unknown action %q", ev.Type)
	}
	return err
}

// Flush writes buffered lines to the underlying writer.
func (t *TextWriter) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Flush()
}

// Close flushes and closes the underlying writer when it is closable.
func (t *TextWriter) Close() error {
	err := t.Flush()
	if t.closer != nil {
		err = errors.Join(err, t.closer.Close())
	}
	return err
}

// TextLine is one parsed line. Pile is set for ADD and MOVE, Cash for CASH.
type TextLine struct {
	Time model.Time
	Op   TextOp
	ID   model.ContainerID
	Pile int
	Cash int64
}

// TextLog is a parsed text log.
type TextLog struct {
	Name  string
	Width int
	Lines []TextLine
}

// ParseText reads a text log. Times must not decrease.
func ParseText(r io.Reader) (*TextLog, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty log", ErrMalformedLog)
	}
	head := strings.Fields(scanner.Text())
	if len(head) != 4 || head[0] != "0" || TextOp(head[1]) != OpStart {
		return nil, fmt.Errorf("%w: line 1: expected \"0 START <name> <width>\"", ErrMalformedLog)
	}
	width, err := strconv.Atoi(head[3])
	if err != nil || width <= 0 {
		return nil, fmt.Errorf("%w: line 1: bad width %q", ErrMalformedLog, head[3])
	}
	log := &TextLog{Name: head[2], Width: width}

	var last model.Time
	n := 1
	for scanner.Scan() {
		n++
		tok := strings.Fields(scanner.Text())
		if len(tok) == 0 {
			continue
		}
		l, err := parseTextLine(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedLog, n, err)
		}
		if l.Time < last {
			return nil, fmt.Errorf("%w: line %d: time %d before %d", ErrMalformedLog, n, l.Time, last)
		}
		last = l.Time
		log.Lines = append(log.Lines, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return log, nil
}

func parseTextLine(tok []string) (TextLine, error) {
	var l TextLine
	if len(tok) < 3 {
		return l, fmt.Errorf("expected at least 3 fields, got %d", len(tok))
	}
	ints := make([]int64, 0, 3)
	for i, s := range tok {
		if i == 1 {
			continue
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return l, fmt.Errorf("field %d: %v", i+1, err)
		}
		ints = append(ints, v)
	}
	l.Time = model.Time(ints[0])
	l.Op = TextOp(tok[1])
	switch l.Op {
	case OpAdd, OpMove:
		if len(tok) != 4 {
			return l, fmt.Errorf("%s expects 4 fields", l.Op)
		}
		l.ID = model.ContainerID(ints[1])
		l.Pile = int(ints[2])
	case OpRemove:
		if len(tok) != 3 {
			return l, fmt.Errorf("%s expects 3 fields", l.Op)
		}
		l.ID = model.ContainerID(ints[1])
	case OpCash:
		if len(tok) != 3 {
			return l, fmt.Errorf("%s expects 3 fields", l.Op)
		}
		l.Cash = ints[1]
	default:
		return l, fmt.Errorf("unknown verb %q", tok[1])
	}
	return l, nil
}

// Events rebuilds action records from the log. REMOVE becomes a sale when
// the container window contains its time and a discard otherwise. Every
// record carries the cash of the latest CASH line; a sale takes the CASH
// line that follows it. Source piles are left unset.
func (l *TextLog) Events(containers map[model.ContainerID]model.Container, keys []storage.PileKey) ([]events.ActionEvent, error) {
	if l.Width != len(keys) {
		return nil, fmt.Errorf("%w: width %d but the layout has %d piles", ErrMalformedLog, l.Width, len(keys))
	}
	var (
		out  []events.ActionEvent
		cash int64
	)
	for i, line := range l.Lines {
		if line.Op == OpCash {
			cash = line.Cash
			if n := len(out); n > 0 && out[n-1].Type == model.ActionSell && out[n-1].Time == line.Time {
				out[n-1].Cash = cash
			}
			continue
		}
		c, ok := containers[line.ID]
		if !ok {
			return nil, fmt.Errorf("%w: entry %d: unknown container %d", ErrMalformedLog, i+1, line.ID)
		}
		ev := events.ActionEvent{Seq: int64(len(out) + 1), Time: line.Time, Container: c, Cash: cash}
		switch line.Op {
		case OpAdd, OpMove:
			if line.Pile < 0 || line.Pile >= len(keys) {
				return nil, fmt.Errorf("%w: entry %d: pile %d out of range", ErrMalformedLog, i+1, line.Pile)
			}
			to := keys[line.Pile]
			ev.To = &to
			ev.Type = model.ActionPlace
			if line.Op == OpMove {
				ev.Type = model.ActionMove
			}
		case OpRemove:
			ev.Type = model.ActionDiscard
			if c.Sellable(line.Time) {
				ev.Type = model.ActionSell
			}
		}
		out = append(out, ev)
	}
	return out, nil
}
