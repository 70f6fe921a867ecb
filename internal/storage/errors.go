package storage

import "errors"

// Membership failure kinds. Match them with errors.Is.
var (
	ErrNotFound      = errors.New("share code not found")
	ErrAlreadyJoined = errors.New("already joined")
	ErrMembership    = errors.New("membership operation failed")
)

// DisplayError carries a message fit to show the user. Error returns only
// the message; the kind and the underlying cause stay reachable through
// errors.Is and errors.As.
type DisplayError struct {
	Kind    error
	Message string
	Err     error
}

func (e *DisplayError) Error() string {
	return e.Message
}

func (e *DisplayError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NotFound(cause error) error {
	return &DisplayError{Kind: ErrNotFound, Message: "No list matches that share code.", Err: cause}
}

func AlreadyJoined(cause error) error {
	return &DisplayError{Kind: ErrAlreadyJoined, Message: "You have already joined this list.", Err: cause}
}

// Failed wraps cause as a generic membership failure with a displayable message.
func Failed(message string, cause error) error {
	return &DisplayError{Kind: ErrMembership, Message: message, Err: cause}
}

// Message returns the displayable text of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var de *DisplayError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
