// Package services defines shared utilities consumed by the playback engine,
// the device gateway, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run correlation IDs, device addresses, zones,
//     and chart names for logging.
//   - Structured error markers plus the Wrap helper that classify failures so
//     the CLI can map them to stable exit codes.
//
// Use these helpers when wiring new device operations so error handling and
// observability stay uniform across commands.
package services
