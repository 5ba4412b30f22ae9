package content

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested post or document has no file.
var ErrNotFound = errors.New("not found")

// FSError reports an unreadable content directory or file.
type FSError struct {
	Op   string
	Path string
	Err  error
}

func (e *FSError) Error() string {
	return fmt.Sprintf("content %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FSError) Unwrap() error { return e.Err }
