package domain

// Command is a shell recipe ready to run.
type Command struct {
	// Line is the command line passed to the shell.
	Line string
	// Dir is the working directory.
	Dir string
	// Env holds extra "KEY=VALUE" entries appended to the process environment.
	Env []string
}
