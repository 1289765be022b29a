// Package notify delivers job failure messages to operators.
//
// A message carries the failing job's name, the failure text, and an
// optional per-job recipient list. Delivery is asynchronous: messages flow
// through a bounded queue into a small worker pool, rate-limited with a
// token bucket and retried with exponential backoff. Identical failures
// inside the dedup window are suppressed so a job failing every minute
// does not page every minute.
//
// # Sinks
//
// The service fans each message out to every configured Sink: SMTP mail,
// Telegram, and generic JSON webhooks (Slack/Mattermost compatible). A sink
// failure is logged and audited but never reaches the job controller.
package notify
