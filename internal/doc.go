// Package internal contains the core implementation packages for headsync.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - taskqueue: serialized async task execution with per-operation isolation
//   - navigation: location decomposition and change detection
//   - head: document-head coordinator lifecycle and title derivation
//   - bridge: client runtime protocol, memoized acquisition, head extraction
//   - server: HTTP/websocket server hosting per-connection sessions
//   - config: configuration loading, validation, and hot reload
//   - logging: structured logging facade
//   - errors: classified error types with recoverability
//   - version: build metadata
package internal
