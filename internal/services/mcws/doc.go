// Package mcws is the command gateway for Media Center web service devices.
//
// Client performs authenticated GET requests against the /MCWS/v1 API,
// decodes the XML Response envelope into named fields, and reports each call
// as a tri-state outcome (OK, device-reported failure, transport failure) so
// callers can treat command failures as "no observable effect" and trust the
// next poll. Only session setup failures are returned as errors.
//
// The same client resolves chart names to playable file keys through the
// Files/Search endpoint; zero or multiple matches are reported as
// ErrNoMatchingFile.
package mcws
