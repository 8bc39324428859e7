package assistant

import "errors"

// Kind classifies why an operation failed
type Kind string

const (
	// KindConfiguration means the model is not usable, e.g. no API key. Detected before any I/O.
	KindConfiguration Kind = "configuration"
	// KindTransport covers data source and provider failures
	KindTransport Kind = "transport"
	// KindParse means the model answered with something that is not a JSON object
	KindParse Kind = "parse"
	// KindInput means the supplied image could not be decoded or converted
	KindInput Kind = "input"
)

// Error is returned by every Service operation
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

// KindOf returns the kind of err, or "" if it did not come from a Service
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Response is the envelope results are reported in, so callers never need
// to inspect errors themselves
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
}

// Respond folds an operation's result into a Response
func Respond[T any](data T, err error) Response[T] {
	if err != nil {
		return Response[T]{Error: err.Error(), Kind: KindOf(err)}
	}
	return Response[T]{Success: true, Data: &data}
}
