package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// StorageError reports a failed serialization or write of a stored record.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// QuotaError is returned when a write would push the store past its quota.
type QuotaError struct {
	Key   string
	Need  int64
	Quota int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("writing %q needs %d bytes, quota is %d", e.Key, e.Need, e.Quota)
}

// IsQuotaError reports whether err is or wraps a QuotaError.
func IsQuotaError(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}
