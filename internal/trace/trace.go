// Package trace emits timing events for the lowering pipeline. It is the
// only observability surface of the compiler: spans around driver stages,
// passes, and individual functions, streamed as text.
package trace

import (
	"fmt"
	"io"
	"os"
)

// Tracer is the sink trace events are emitted into.
type Tracer interface {
	// Emit records one event. Must be goroutine-safe.
	Emit(ev *Event)

	// Flush writes out anything buffered.
	Flush() error

	// Close flushes and releases the output.
	Close() error

	// Level returns the active verbosity.
	Level() Level

	// Enabled reports whether any events are emitted at all.
	Enabled() bool
}

// Config selects where and how much to trace.
type Config struct {
	Level Level

	// Output receives the event stream. When nil, OutputPath is opened;
	// an empty path (or "-") means stderr.
	Output     io.Writer
	OutputPath string
}

// New creates a tracer from config. LevelOff yields the nop tracer.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	w, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	return NewStreamTracer(w, cfg.Level), nil
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("trace: open output: %w", err)
	}
	return f, nil
}
