// Package models defines the domain entities shared by the backend client, the
// polling engine, persistence, and the terminal views.
//
// The package contains two categories of types:
//
// 1. Wire types: structs decoded from (or encoded to) the backend contract
//   - [Job] and [JobStatus] : a server-tracked fetch/link task and its lifecycle
//   - [MediaItem], [Details], [Episode], [Genre] : discovery and metadata results
//   - [Stream] : a candidate source for a download, with the cache marker heuristic
//   - [RemoteEntry] : one entry of the remote file browser listing
//   - [Library], [LibraryNode] and [SymlinkInfo] : the local media library tree
//
// 2. Client-side entities: state the engine derives or persists
//   - [Notification] : a server-pushed toast with its arrival time
//   - [LinkState] and [SyncState] : per-path liveness and per-title optimistic flags
//   - [HistoryEntry] : an archived terminal job, persisted to SQLite
//
// Persistent entities implement [Model]; [Repository] defines CRUD access for them.
package models
