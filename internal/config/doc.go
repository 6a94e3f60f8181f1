// Package config loads, normalizes, and validates untethered configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MCWS_ADDRESS, MCWS_USERNAME, and MCWS_PASSWORD. The Config type centralizes
// every knob the CLI needs: the media servers to drive, the test chart that
// carries the patches, and the pacing applied while reconciling playback.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
