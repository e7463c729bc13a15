package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the log output of the application.
type Options struct {
	Level      string
	Console    bool
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Factory builds component loggers sharing one output.
type Factory struct {
	out   io.Writer
	level string
	close func() error
}

// NewFactory opens the output described by opts. A file output is rotated
// with lumberjack and must be released with Close.
func NewFactory(opts Options) (*Factory, error) {
	f := &Factory{out: os.Stderr, level: opts.Level, close: func() error { return nil }}
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		f.out, f.close = lj, lj.Close
	}
	if opts.Console {
		f.out = zerolog.ConsoleWriter{Out: f.out, TimeFormat: time.RFC3339, NoColor: opts.File != ""}
	}
	return f, nil
}

// New returns a logger tagged with component.
func (f *Factory) New(component string) Logger {
	return NewZerologLoggerWithWriter(f.out, component, f.level)
}

// Close releases the output.
func (f *Factory) Close() error { return f.close() }
