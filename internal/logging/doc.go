// Package logging assembles structured slog loggers and formatting helpers used
// across untethered components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so device operations
// automatically tag log lines with the run correlation ID, device address,
// zone, and chart. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
package logging
