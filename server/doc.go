// Package server exposes the research pipeline over HTTP. It owns request
// binding, the error body shape and the operational endpoints (health,
// cache clearing); all research semantics live behind the assistant.
package server
