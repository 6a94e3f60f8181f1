// Package history records play and patch events in SQLite so calibration runs
// can be audited after the fact.
//
// Every CLI invocation carries a run ID; each device operation it performs
// appends one event row with the device, chart variant, patch index, target
// position, outcome, and error text. The Store manages the connection, schema
// initialization, busy retries, listing, statistics, and pruning.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package history
