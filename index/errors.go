// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package index

import "errors"

var (
	ErrIndexOutOfBounds      = errors.New("index out of bounds")
	ErrNoBaseIndex           = errors.New("no base index stored or provided")
	ErrBaseIndexMismatch     = errors.New("base index mismatch")
	ErrInconsistentIndexSize = errors.New("inconsistent index size")
	ErrInconsistentCacheSize = errors.New("inconsistent cache size")
	ErrPositionOverflow      = errors.New("record position overflows 32 bits")
	ErrLengthOverflow        = errors.New("record length overflows 32 bits")
	ErrInvalidRecordSize     = errors.New("invalid record size")
)
