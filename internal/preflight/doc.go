// Package preflight provides readiness checks for the media servers and
// filesystem paths untethered depends on.
//
// The CLI "untethered check" command runs RunAll before a calibration session
// so an unreachable server, rejected credentials, or a missing chart surface
// before the meter is started. Each check returns a Result instead of an
// error so every problem is reported in one pass.
package preflight
