package vertex

import "errors"

var (
	ErrResourceAllocation = errors.New("device could not allocate resource")
	ErrOutOfRange         = errors.New("attribute slot out of range")
	ErrMixedWidth         = errors.New("component width differs from earlier data")
	ErrEmptyBuffer        = errors.New("vertex buffer has no data")
)
