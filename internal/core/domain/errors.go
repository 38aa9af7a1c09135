package domain

import "go.trai.ch/zerr"

var (
	// ErrNoMatchingRule is returned when a target has no matching rule and does not exist as a file.
	ErrNoMatchingRule = zerr.New("no rule matched target")

	// ErrCircularDependency is returned when a cycle is reachable from the target being made.
	ErrCircularDependency = zerr.New("circular dependency detected")

	// ErrRecipeFailed is returned when a recipe reports an error.
	ErrRecipeFailed = zerr.New("recipe failed")

	// ErrCorruptedDynamicRecord is reported when a dynamic dependency record is not valid JSON.
	ErrCorruptedDynamicRecord = zerr.New("corrupted dynamic dependency record")

	// ErrDynamicRecordWriteFailed is returned when a dynamic dependency record cannot be written.
	ErrDynamicRecordWriteFailed = zerr.New("failed to write dynamic dependency record")

	// ErrRuleNotFound is returned when updating a rule that was never registered.
	ErrRuleNotFound = zerr.New("rule not found")

	// ErrNoDefaultTarget is returned when make is called without a target and no concrete rule exists.
	ErrNoDefaultTarget = zerr.New("target not found")

	// ErrUnknownTarget is returned when invalidating a target the engine has never seen.
	ErrUnknownTarget = zerr.New("unknown target")

	// ErrInvalidPattern is returned when a target declaration cannot be compiled.
	ErrInvalidPattern = zerr.New("invalid target pattern")

	// ErrDynamicRegexpRule is returned when a dynamic rule is declared with a regular expression.
	ErrDynamicRegexpRule = zerr.New("dynamic rules do not support regular expression targets")

	// ErrInvalidPrerequisite is returned when a prerequisite resolver yields an unsupported value.
	ErrInvalidPrerequisite = zerr.New("invalid prerequisite")

	// ErrCaptureOutOfRange is returned when a prerequisite references a capture group that does not exist.
	ErrCaptureOutOfRange = zerr.New("capture group out of range")

	// ErrDependencyIndexOutOfRange is returned when a recipe asks for a dependency that does not exist.
	ErrDependencyIndexOutOfRange = zerr.New("dependency index out of range")

	// ErrStatFailed is returned when a file cannot be inspected for its modification time.
	ErrStatFailed = zerr.New("failed to stat file")

	// ErrDatabaseReadFailed is returned when the timestamp database cannot be read.
	ErrDatabaseReadFailed = zerr.New("failed to read database")

	// ErrDatabaseCorrupted is reported when the timestamp database is not valid JSON.
	ErrDatabaseCorrupted = zerr.New("database is corrupted, starting from scratch")

	// ErrDatabaseMarshalFailed is returned when the timestamp database cannot be encoded.
	ErrDatabaseMarshalFailed = zerr.New("failed to marshal database")

	// ErrDatabaseWriteFailed is returned when the timestamp database cannot be written.
	ErrDatabaseWriteFailed = zerr.New("failed to write database")

	// ErrDatabaseValueMismatch is returned when a stored value cannot be decoded into the requested type.
	ErrDatabaseValueMismatch = zerr.New("stored value has an unexpected type")

	// ErrConfigReadFailed is returned when the makefile cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read makefile")

	// ErrConfigParseFailed is returned when the makefile cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse makefile")

	// ErrConfigNotFound is returned when no makefile can be found.
	ErrConfigNotFound = zerr.New("could not find makefile.yaml")

	// ErrMissingTarget is returned when a makefile rule has no target declaration.
	ErrMissingTarget = zerr.New("rule is missing a target")

	// ErrCommandFailed is returned when a shell recipe exits with an error.
	ErrCommandFailed = zerr.New("command failed")

	// ErrMakeFailed is returned by the CLI when a make invocation fails.
	ErrMakeFailed = zerr.New("make failed")

	// ErrWatcherFailed is returned when the file watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to start file watcher")
)
