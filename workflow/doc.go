// Package workflow implements the query-to-result orchestration pipeline:
// a Finder role performing the literature lookup and a Scorer role
// summarizing and scoring every paper run in strict alternating turn order
// until a termination signal appears or a hard turn cap is hit.
//
// The exchange is modeled as an explicit finite-state machine. Roles emit
// structured TurnResults carrying a Signal (continue, handoff, terminate);
// the machine transitions on signals only, never by scanning transcripts
// itself. Completion and termination tokens are detected inside each role,
// at the boundary where model text becomes structure.
package workflow
