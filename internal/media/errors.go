package media

import (
	"errors"
	"fmt"
)

// Kind classifies a media failure.
type Kind int

const (
	FileTooLarge Kind = iota + 1
	UnsupportedType
	DecodeError
	ReadError
)

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrDecode          = errors.New("image could not be decoded")
	ErrRead            = errors.New("file could not be read")
)

func (k Kind) sentinel() error {
	switch k {
	case FileTooLarge:
		return ErrFileTooLarge
	case UnsupportedType:
		return ErrUnsupportedType
	case DecodeError:
		return ErrDecode
	default:
		return ErrRead
	}
}

// Error is returned for every failed compression. The pending
// completion must be abandoned when one is returned.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}
