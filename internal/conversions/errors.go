package conversions

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfiguration   Kind = "configuration"
	KindTransport       Kind = "transport"
	KindRemoteAPI       Kind = "remote_api"
	KindResponseParse   Kind = "response_parse"
	KindInvalidArgument Kind = "invalid_argument"
)

// Sentinels for errors.Is. Use errors.As with *Error for the details.
var (
	ErrConfiguration   = &Error{Kind: KindConfiguration}
	ErrTransport       = &Error{Kind: KindTransport}
	ErrRemoteAPI       = &Error{Kind: KindRemoteAPI}
	ErrResponseParse   = &Error{Kind: KindResponseParse}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
)

type Error struct {
	Kind    Kind
	Message string
	// StatusCode is the remote HTTP status, zero when no response was received.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("conversions %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("conversions %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: msg,
		Err:     err,
	}
}

// KindOf returns the kind of a conversions error, or an empty kind.
func KindOf(err error) Kind {
	var cErr *Error
	if errors.As(err, &cErr) {
		return cErr.Kind
	}
	return ""
}
