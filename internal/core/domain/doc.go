// Package domain defines the core business entities for Intelstream.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Item: A single piece of intelligence from a provider
//   - Query: The input to one aggregation request
//   - StreamEvent: The wire-shaped event emitted by the events entry point
//   - Diagnostic: A per-provider failure surfaced without failing the call
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
