package stego

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the codec and its hosts can report.
type Kind int

const (
	KindProcessing Kind = iota
	KindCapacity
	KindInvalidFrame
	KindInputFormat
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindCapacity:
		return "capacity"
	case KindInvalidFrame:
		return "invalid_frame"
	case KindInputFormat:
		return "input_format"
	case KindNotFound:
		return "not_found"
	default:
		return "processing"
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its kind.
var (
	ErrProcessing   = errors.New("image processing failed")
	ErrCapacity     = errors.New("message does not fit in image")
	ErrInvalidFrame = errors.New("invalid or absent message")
	ErrInputFormat  = errors.New("unsupported pixel layout")
	ErrNotFound     = errors.New("image not found")
)

func (k Kind) sentinel() error {
	switch k {
	case KindCapacity:
		return ErrCapacity
	case KindInvalidFrame:
		return ErrInvalidFrame
	case KindInputFormat:
		return ErrInputFormat
	case KindNotFound:
		return ErrNotFound
	default:
		return ErrProcessing
	}
}

// Error carries a Kind, the operation that failed and an optional cause.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func newError(kind Kind, op, detail string) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

// Wrap attaches a kind to err. A nil err stays nil and an err that already
// carries a kind keeps it.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of err. Errors without one are processing errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindProcessing
}
