// Package cdberr defines the error taxonomy shared across the conversion core.
package cdberr

import "fmt"

// Kind discriminates the fixed set of contract violations the core can raise.
type Kind int

const (
	UnsupportedDataset Kind = iota
	InvalidConfiguration
	OutOfRange
	MalformedCombineToken
	IOError
)

func (k Kind) String() string {
	switch k {
	case UnsupportedDataset:
		return "UnsupportedDataset"
	case InvalidConfiguration:
		return "InvalidConfiguration"
	case OutOfRange:
		return "OutOfRange"
	case MalformedCombineToken:
		return "MalformedCombineToken"
	case IOError:
		return "IOError"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with a Kind so callers can discriminate
// with errors.As without string matching.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Is lets errors.Is(err, cdberr.New(cdberr.UnsupportedDataset, "")) style
// checks work: any *Error target matches when its Kind equals e's; the
// target's Msg and Cause are not compared.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
