package index

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSubscript = errors.New("invalid subscript")
	ErrOutOfBounds      = errors.New("subscript out of bounds")
)

// BoundsError reports the axis and computed range of an out-of-bounds request.
type BoundsError struct {
	Axis        int
	Start, Stop int
	Size        int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("axis %d: range [%d, %d) outside [0, %d)", e.Axis, e.Start, e.Stop, e.Size)
}

func (e *BoundsError) Is(target error) bool { return target == ErrOutOfBounds }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSubscript, fmt.Sprintf(format, args...))
}
