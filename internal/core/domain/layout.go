package domain

import "path/filepath"

const (
	// MakefileName is the name of the project makefile.
	MakefileName = "makefile.yaml"

	// DatabaseName is the name of the timestamp database file.
	DatabaseName = ".makit.db"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// Environment variables set for shell recipes.
const (
	// EnvTarget holds the target being made.
	EnvTarget = "MAKIT_TARGET"
	// EnvRoot holds the project root.
	EnvRoot = "MAKIT_ROOT"
	// EnvDependencyFile names a file a dynamic recipe writes the targets it
	// depends on to, one per line.
	EnvDependencyFile = "MAKIT_DEPFILE"
)

// DefaultDatabasePath returns the timestamp database path for a project root.
func DefaultDatabasePath(root string) string {
	return filepath.Join(root, DatabaseName)
}

// DefaultMakefilePath returns the makefile path for a project root.
func DefaultMakefilePath(root string) string {
	return filepath.Join(root, MakefileName)
}
