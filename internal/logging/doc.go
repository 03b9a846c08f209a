// Package logging assembles structured slog loggers and formatting helpers
// used across the rendering pipeline.
//
// It centralizes level and output plumbing, offers text and JSON handlers, and
// exposes context-aware helpers so stage code automatically tags log lines
// with session IDs, stage names, and render correlation IDs. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
