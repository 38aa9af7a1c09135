package ports

// DataBase is a document store of JSON values, persisted as a single file.
// Mutations stay in memory until Sync.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type DataBase interface {
	// Query decodes the value stored under doc/key into out.
	// It reports false, leaving out untouched, when nothing is stored.
	Query(doc, key string, out any) (bool, error)
	// Write stores value under doc/key.
	Write(doc, key string, value any) error
	// Clear removes a document, or every document when doc is empty.
	Clear(doc string)
	// Sync flushes pending changes to disk.
	Sync() error
}

// DataBaseOpener opens the database stored at path.
type DataBaseOpener interface {
	Open(path string) (DataBase, error)
}
