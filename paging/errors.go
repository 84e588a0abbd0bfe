package paging

import "errors"

// ErrInvalidPolicy is returned when the requested replacement policy is not
// one of FIFO, LRU and Optimal.
var ErrInvalidPolicy = errors.New("invalid algorithm")

// ErrInvalidCapacity is returned when the frame count is not positive or the
// reference string is empty.
var ErrInvalidCapacity = errors.New("invalid capacity")
