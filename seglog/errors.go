// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package seglog

import "errors"

var (
	ErrIndexOutOfBounds   = errors.New("index out of bounds")
	ErrSegmentGap         = errors.New("segments are not contiguous")
	ErrInvalidCacheBound  = errors.New("cached read segment bound must not be negative")
	ErrMissingPolicy      = errors.New("bounded index caching requires a policy constructor")
	ErrInvalidConcurrency = errors.New("concurrent reads must be greater than 0")
)
