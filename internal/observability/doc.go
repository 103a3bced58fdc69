// Package observability provides the analysis trace log, metrics
// derivation, and alerting for hpc-brain. Events persist as structured
// JSON Lines; metrics and alerts are derived on demand from the log.
package observability
