// Package services implements the driving port interfaces.
// Services contain the core business logic: the provider registry,
// the fan-in merge engine, and the aggregator composing the two.
//
// Services are pure Go with no external dependencies beyond the
// domain and port packages.
package services
