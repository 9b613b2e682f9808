// Package store provides the widget's durable key/value scope.
//
// # Overview
//
// The widget needs exactly one piece of durable state: the anonymous session
// identifier. The Store interface models the scope that holds it as a small
// key/value API so the identity package does not care where bytes live.
//
// # Backends
//
//   - SQLiteStore: a kv_store table in a SQLite database. The default driver
//     is modernc.org/sqlite (pure Go); "sqlite3" selects mattn/go-sqlite3
//     for builds with cgo.
//   - FileStore: one JSON document, replaced atomically via rename.
//   - MemoryStore: process lifetime only.
//
// # Usage
//
//	s, err := store.Open(store.DriverSQLite, "/home/me/.local/share/edi-chat/widget.db", logger)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	value, err := s.Get(ctx, "edi_chat_session_id")
//	if errors.Is(err, store.ErrNotFound) {
//	    // first run
//	}
package store
