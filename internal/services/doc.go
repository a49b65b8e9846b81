// Package services implements the HTTP clients for the fetch/link backend.
//
// # Backend Contract
//
// [BackendService] is the typed client for every endpoint the engine consumes:
// the polled feeds (active jobs, job log pages, notifications, mount health,
// global log tail), discovery and metadata lookups, and the user-initiated
// commands (download, pause, resume, delete, manual link, settings).
// It satisfies [Backend], which is what the rest of the module depends on.
//
// Each request carries the caller's context and the client enforces the
// configured timeout, so a hung backend never wedges a poller.
//
// # Raw Access
//
// [APIService] issues untyped GET/POST/DELETE calls and returns the raw body
// with JSON detection. The `api` CLI command uses it for ad hoc inspection.
//
// # Error Handling
//
// Failures are classified with sentinels from the shared package:
//   - [shared.ErrAPIRequest] : the request could not be built or sent
//   - [shared.ErrServiceUnavailable] : the backend answered 5xx
//
// Non-2xx answers are returned as [*APIError], which carries the HTTP status
// and the backend's {"detail": ...} message. [shared.DisplayError] shows that
// detail verbatim.
package services
