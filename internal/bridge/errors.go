package bridge

import "errors"

var (
	ErrUnavailable    = errors.New("backend unavailable")
	ErrUnknownCommand = errors.New("unknown command")
)

// CommandError is a failed command as seen by the caller.
type CommandError struct {
	Command string
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	return e.Message
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Message extracts the displayable message from err. Non-bridge errors
// (local validation) are returned as their plain text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
