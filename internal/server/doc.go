// Package server provides HTTP routing, middleware, and an in-memory stub of the media backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses a chi mux internally, so routes may carry {param} segments
// and method mismatches answer 405 with a JSON detail body.
//
// # Stub Backend
//
// [Stub] answers the same JSON contract the real backend does: the setup gate, mount status,
// drained notifications, the active-jobs snapshot keyed by job id, incremental job logs,
// discovery feeds, streams, job commands, existence checks, the remote file browser, and settings.
//
// Jobs advance one stage per [Stub.Advance] call (Searching, Downloading, Linking, Completed) and
// leave the active set a few advances after finishing. Paused jobs hold still. [Stub.Run] drives
// Advance on a ticker for the serve-stub command; tests call it directly.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
