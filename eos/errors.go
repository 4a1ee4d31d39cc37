package eos

import (
	"errors"
	"fmt"

	"github.com/rtm0/eos/index"
	"github.com/rtm0/eos/internal/driver"
)

var (
	// ErrStorageRead marks a failed read of field data.
	ErrStorageRead = errors.New("eos: storage read failed")
	// ErrTransform marks a failed geolocation transform.
	ErrTransform = errors.New("eos: transform failed")
	// ErrClosed is returned when a closed file or detached object is
	// closed again or used.
	ErrClosed = driver.ErrClosed
	// ErrNotFound is returned for unknown grid, swath or field names.
	ErrNotFound = driver.ErrNotFound
	// ErrNotRecognized is returned when no driver can open the file.
	ErrNotRecognized = driver.ErrNotRecognized
)

// ReadError reports a failed read together with the object, the field and
// the selection that was requested.
type ReadError struct {
	Object string
	Field  string
	Plan   *index.Plan
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("eos: reading %s/%s [%s]: %v", e.Object, e.Field, e.Plan, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

func (e *ReadError) Is(target error) bool { return target == ErrStorageRead }

// AttachError reports a grid or swath that could not be attached.
type AttachError struct {
	Name string
	Err  error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("eos: attaching %q: %v", e.Name, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }
