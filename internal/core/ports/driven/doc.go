// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Provider: Produces a lazy stream of items for a query
//
// # Optional Interfaces
//
//   - ItemCache: Keyed item cache consumed by provider implementations.
//     The merge engine never touches it; a provider without a cache simply
//     fetches live every time.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or provider package
package driven
