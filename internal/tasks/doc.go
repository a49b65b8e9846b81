// Package tasks converges the client's view of the library with the backend.
//
// # Components
//
// A [Session] owns one instance of each component and their lifecycle:
//
//  1. [StatusPoller] : polls active jobs, notifications, mount health, and the
//     global log tail on a fixed interval. Its snapshot is authoritative and is
//     replaced wholesale on every successful fetch.
//
//  2. [JobLogPoller] : follows every non-terminal job in the latest snapshot with
//     a monotonic cursor. Terminal jobs are never fetched again. A per-job
//     in-flight guard keeps a slow fetch from overlapping the next tick.
//
//  3. [SearchController] and [DiscoveryPager] : debounced search input and the
//     paginated result list. A non-empty query always wins over discovery;
//     page loads are guarded against overlap and stale responses are dropped.
//
//  4. [JobController] : user-initiated commands. Success applies optimistic
//     flags in the [SymlinkReconciler]; failure shows an error banner.
//
//  5. [SymlinkReconciler] : per-path liveness and per-title library flags. Every
//     existence observation overwrites the optimistic flag it concerns.
//
//  6. [NotificationCenter] : server toasts with a TTL per batch and a
//     self-clearing banner for local feedback.
//
// # Concurrency
//
// Each component guards its own state with a mutex and is the only writer of
// that state. No lock is held across a network call. Every loop and timer is a
// [Handle] held by the session's [Registry], which [Session.Close] disposes.
//
// Pollers expose Tick for a single synchronous pass and Start for the loop.
//
// # Progress Reporting
//
// Components announce state changes on a buffered channel ([Session.Events]).
// Sends use select with default so reporting never blocks the engine.
package tasks
