package domain

import "strings"

// TargetState represents the lifecycle state of a target within one engine.
// States only move forward, except that invalidation resets a target to Init.
type TargetState int

const (
	// TargetInit indicates the target is waiting for its prerequisites.
	TargetInit TargetState = iota
	// TargetStarted indicates the target has been popped from the ready queue.
	TargetStarted
	// TargetResolved indicates the target was made or skipped successfully.
	TargetResolved
	// TargetRejected indicates the target, or one of its prerequisites, failed.
	TargetRejected
)

// String returns the string representation of the TargetState.
func (s TargetState) String() string {
	switch s {
	case TargetInit:
		return "init"
	case TargetStarted:
		return "started"
	case TargetResolved:
		return "resolved"
	case TargetRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// IsFinished checks if a state is terminal (Resolved or Rejected).
func (s TargetState) IsFinished() bool {
	return s == TargetResolved || s == TargetRejected
}

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelVerbose sits between debug and info and shows rule registration and graph details.
	LogLevelVerbose LogLevel = -2
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelVerbose:
		return "VERBOSE"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLogLevel converts a level name to a LogLevel, defaulting to info if unknown.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "verbose":
		return LogLevelVerbose
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}
