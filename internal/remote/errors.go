package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSignedIn is returned by operations that need a profile when
	// nobody is signed in.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrSignInCancelled means the sign-in was interrupted.
	ErrSignInCancelled = errors.New("sign-in cancelled")

	// ErrSignInClosed means the user closed the sign-in prompt.
	ErrSignInClosed = errors.New("sign-in prompt closed")

	ErrProfileNotFound = errors.New("profile not found")
	ErrRequestNotFound = errors.New("friend request not found")
	ErrAlreadyFriends  = errors.New("already friends")
	ErrSelfRequest     = errors.New("cannot send a friend request to yourself")
)

// Error is returned for every failed collaborator operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsSuppressed reports whether err is an expected user cancellation that
// should not be shown as a failure.
func IsSuppressed(err error) bool {
	return errors.Is(err, ErrSignInCancelled) || errors.Is(err, ErrSignInClosed)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
