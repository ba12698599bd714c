// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "errors"

var (
	ErrClosed                 = errors.New("storage closed")
	ErrReadOutOfBounds        = errors.New("read out of bounds")
	ErrNotFlushed             = errors.New("read covers unflushed bytes")
	ErrTruncateOutOfBounds    = errors.New("truncate mark beyond storage size")
	ErrUnexpectedStreamLength = errors.New("unexpected stream length")
	ErrStreamRead             = errors.New("stream read failed")
	ErrDirectoryLocked        = errors.New("directory is used by another process")
	ErrInvalidPageSize        = errors.New("page size must be greater than 0")
	ErrInvalidSizeEntry       = errors.New("invalid size entry")
)
