// Package repositories implements SQLite persistence for the local job history.
//
// Key Implementations:
//   - [JobHistoryRepository] : archived jobs and the log lines collected for them
//   - [HistoryArchiver] : adapts the repository to the status poller's archive hook
//
// Sequence numbers provide stable, human-readable ordering (e.g., history #42) independent of UUIDs and creation timestamps.
// [NextSequence] derives the next number inside the inserting transaction.
package repositories
