package trace

import "fmt"

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff Level = iota
	// LevelPhase traces driver and pass boundaries.
	LevelPhase
	// LevelDetail adds per-function events.
	LevelDetail
	// LevelDebug emits everything.
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelPhase:
		return "phase"
	case LevelDetail:
		return "detail"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "off", "OFF":
		return LevelOff, nil
	case "phase", "PHASE":
		return LevelPhase, nil
	case "detail", "DETAIL":
		return LevelDetail, nil
	case "debug", "DEBUG":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|phase|detail|debug)", s)
	}
}

// ShouldEmit reports whether events of the given scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelPhase:
		return scope <= ScopePass
	case LevelDetail:
		return scope <= ScopeFunction
	case LevelDebug:
		return true
	}
	return false
}
