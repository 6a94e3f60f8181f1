// Package main hosts the untethered CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration, builds one playback
// engine per selected media server, and drives it into a paused, fullscreen
// chart or onto specific patches. It centralizes configuration resolution,
// run correlation IDs, per-zone locking, event history, and structured
// logging setup so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
