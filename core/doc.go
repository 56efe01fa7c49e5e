// Package core provides the foundational domain types used by PaperScout.
// It defines the core abstractions for:
//
//   - Content / Part (role-tagged conversational content segments)
//   - Messages (immutable transcript records of a role exchange)
//   - ToolContext (scoped execution context for tool invocations)
//   - The error taxonomy surfaced to callers (invalid input, backend
//     unavailable, malformed output)
//   - Clock (injectable time source for deterministic tests)
//   - TurnLimiter (hard bound on exchange turns)
//
// The package intentionally keeps implementation concerns (model backends,
// orchestration, transport) out of scope. Higher-level packages depend on
// core; core depends only on the standard library, uuid and logging.
package core
