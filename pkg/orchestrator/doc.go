// Package orchestrator wires the portfolio file → session → renderer →
// exporter pipeline behind a single entry point for headless builds.
package orchestrator
