// Package storage is the client's durable key/value store: the equivalent of
// browser local storage for a terminal client. It keeps the session
// credential across process restarts.
//
// Two implementations are provided:
//
//   - SQLiteStorage persists to a local SQLite file migrated with goose.
//   - MemoryStorage keeps values in process memory (tests, -d "").
//
// Typical usage
//
//	db, err := storage.Open(ctx, filepath.Join(dataDir, "bookstore.db"))
//	...
//	st := storage.NewSQLiteStorage(db)
//	token, ok, err := st.Get(ctx, storage.CredentialKey)
package storage
