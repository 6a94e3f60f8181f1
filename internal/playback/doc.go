// Package playback drives a media server into a paused, fullscreen frame of a
// test chart and seeks between numbered patches within that chart.
//
// The Engine observes the server by polling Playback/Info, feeds each
// observation through a pure transition function, and applies exactly one
// corrective command per step until the chart is paused or the retry budget
// is spent. DisplayPatch builds on that loop: it reconciles, seeks to the
// patch position, and verifies the reported position, retrying a bounded
// number of times.
//
// Engines are not safe for concurrent use. Callers that may share a device
// across processes serialize through internal/devicelock.
package playback
