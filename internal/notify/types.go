package notify

import "time"

// Config controls the async notification pipeline.
type Config struct {
	Enabled         bool
	Workers         int
	QueueSize       int
	RatePerSec      int
	RetryMax        int
	RetryBase       time.Duration
	RetryMaxDelay   time.Duration
	DedupWindow     time.Duration
	DedupMaxEntries int
	PersistDedup    bool

	// Subject is the mail subject template. Two %s verbs: host, job name.
	Subject string
}

// Message is one failure report. Recipients override the mail sink's
// default recipient list; other sinks ignore it.
type Message struct {
	Job        string
	Text       string
	Recipients []string
	Host       string
	Log        string // stderr destination of the job, if any
	At         time.Time
}
