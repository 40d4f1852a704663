// Package session owns the engine handle and relays generation requests to
// it. It is structured into small files by concern:
//
//   - session.go: Session type, constructor, Initialize/Dispose lifecycle.
//   - config.go: Config and package defaults.
//   - types.go: State and Snapshot.
//   - errors.go: error types and predicates (IsNotInitialized, IsModelNotFound, ...).
//   - relay.go: Generate (single-shot) and GenerateChunked (chunked replay).
//   - replay.go: splitting a finished response into cumulative chunks.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//   - metrics.go: Prometheus collectors.
//
// Lifecycle: uninitialized -> initializing -> ready -> disposed. The state
// tag and the handle change only under the session mutex; engine calls run
// outside it, bounded by a weighted semaphore, under a context that Dispose
// cancels. Dispose waits for in-flight engine calls before closing the
// handle, so a handle is never closed underneath a running generation.
//
// GenerateChunked is not token streaming: the engine produces the whole
// response first and the session replays it in word chunks afterwards.
package session
