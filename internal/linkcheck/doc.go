// Package linkcheck implements the concurrent broken-link crawler engine:
// the work queue and dispatcher, per-URL state machine, dedupe and skip
// logic, retry/backoff policies, HTML/Markdown link extraction, and the
// ephemeral static file server glue used when a seed is a local directory.
package linkcheck
