// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with language models inside PaperScout.
//
// Core goals:
//   - Normalize tool / function call representation (ToolDefinition)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (workflow roles) remain decoupled from vendor
// SDKs. Generation is blocking: each role exchange turn waits on the model
// backend before the next turn is taken.
package model
