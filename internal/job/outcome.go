package job

// Status classifies how one execution attempt ended.
type Status int

const (
	StatusSuccess Status = iota

	// StatusSkip is an expected, non-alarming reason the job did not run
	// (already locked, gated out). Logged, never notified.
	StatusSkip

	StatusFailure
)

// FailureKind narrows a StatusFailure for callers that need to branch.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureCommand
	FailureHandler
	FailureIO
	FailureConfig
	FailureRuntimeExceeded
)

// Outcome is the result of one execution attempt. It is produced once and
// consumed immediately by the controller; it is never persisted.
type Outcome struct {
	Status  Status
	Kind    FailureKind
	Message string

	// ExitCode is set for command actions (FailureCommand), zero otherwise.
	ExitCode int
}

func Success() Outcome { return Outcome{Status: StatusSuccess} }

func Skip(message string) Outcome {
	return Outcome{Status: StatusSkip, Message: message}
}

func Failure(kind FailureKind, message string) Outcome {
	return Outcome{Status: StatusFailure, Kind: kind, Message: message}
}
