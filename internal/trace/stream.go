package trace

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	globalSeq   atomic.Uint64
	globalSpans atomic.Uint64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 {
	return globalSeq.Add(1)
}

// NextSpanID returns a unique span id.
func NextSpanID() uint64 {
	return globalSpans.Add(1)
}

// StreamTracer writes events to an io.Writer as they are emitted.
type StreamTracer struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

// NewStreamTracer creates a tracer writing text events to w.
func NewStreamTracer(w io.Writer, level Level) *StreamTracer {
	return &StreamTracer{w: w, level: level}
}

// Emit writes one event. Write errors never disturb compilation.
func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) {
		return
	}
	if ev.Seq == 0 {
		ev.Seq = NextSeq()
	}

	line := fmt.Sprintf("%s seq=%d %s %s span=%d name=%s",
		ev.Time.Format(time.RFC3339Nano), ev.Seq, ev.Kind, ev.Scope, ev.SpanID, ev.Name)
	if ev.ParentID != 0 {
		line += fmt.Sprintf(" parent=%d", ev.ParentID)
	}
	if ev.Detail != "" {
		line += " detail=" + ev.Detail
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.w, line+"\n")
}

// Flush writes out buffered data when the writer supports it.
func (t *StreamTracer) Flush() error {
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the writer if it implements io.Closer.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if closer, ok := t.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Level returns the active verbosity.
func (t *StreamTracer) Level() Level {
	return t.level
}

// Enabled reports whether any events are emitted.
func (t *StreamTracer) Enabled() bool {
	return t.level > LevelOff
}
