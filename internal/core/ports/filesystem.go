package ports

// FileSystem is the file capability used by the engine and by recipes.
// Paths are passed through unchanged; callers resolve them against the project root.
type FileSystem interface {
	// ModTime returns the physical modification time in nanoseconds.
	// It returns an error satisfying errors.Is(err, fs.ErrNotExist) for missing files.
	ModTime(path string) (int64, error)
	// ReadFile returns the content of the file.
	ReadFile(path string) ([]byte, error)
	// WriteFile writes data to the file, creating parent directories as needed.
	WriteFile(path string, data []byte) error
	// MkdirAll creates the directory and any missing parents.
	MkdirAll(path string) error
	// Remove deletes the file.
	Remove(path string) error
	// Exists reports whether the file exists.
	Exists(path string) (bool, error)
}
