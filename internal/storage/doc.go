// Package storage is the optional persistence layer behind the notifier:
// a dedup table (so repeated failures of a flapping job do not re-page
// within the window, even across runner restarts) and an append-only audit
// of notification dispatches.
//
// Job run history is deliberately NOT stored here; outcomes live in the
// per-job log files only.
package storage
