package recordstore

import (
	"errors"
	"fmt"
)

// Failure kinds carried by StorageError. Match them with errors.Is.
var (
	ErrIO    = errors.New("record store i/o failure")
	ErrParse = errors.New("record store parse failure")
)

// StorageError reports that the backing file could not be read, written or
// decoded. It is never used for "record not found" outcomes.
type StorageError struct {
	Op   string // "open", "load" or "save"
	Path string
	Kind error // ErrIO or ErrParse
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IsStorageError reports whether err is, or wraps, a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
