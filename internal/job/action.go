package job

import "errors"

// ActionKind tags the two action variants.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionCommand
	ActionHandler
)

// Action is what a job runs: exactly one of a shell command line or a named
// in-process handler. The executor dispatches on Kind; config validation
// guarantees exactly one payload is set.
type Action struct {
	Kind ActionKind

	// Command is a shell command line (ActionCommand).
	Command string

	// Handler is a registered handler name (ActionHandler). Handlers are
	// resolved by name so a detached child process can look them up again;
	// function values do not survive a process boundary.
	Handler string
}

// CommandAction wraps a shell command line.
func CommandAction(command string) Action {
	return Action{Kind: ActionCommand, Command: command}
}

// HandlerAction references a handler registered with Register.
func HandlerAction(name string) Action {
	return Action{Kind: ActionHandler, Handler: name}
}

func (a Action) validate() error {
	switch a.Kind {
	case ActionCommand:
		if a.Command == "" {
			return errors.New("command action with empty command")
		}
		if a.Handler != "" {
			return errors.New("action has both command and handler payloads")
		}
	case ActionHandler:
		if a.Handler == "" {
			return errors.New("handler action with empty handler name")
		}
		if a.Command != "" {
			return errors.New("action has both command and handler payloads")
		}
	default:
		return errors.New("job has neither a command nor a handler")
	}
	return nil
}
