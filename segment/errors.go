// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package segment

import "errors"

var (
	ErrSegmentMaxed          = errors.New("segment maxed")
	ErrIndexMismatch         = errors.New("record index does not match next index")
	ErrCorruptRecord         = errors.New("corrupt record")
	ErrMetadataTooLarge      = errors.New("metadata too large")
	ErrInvalidMaxStoreSize   = errors.New("max store size must be greater than 0")
	ErrInvalidMaxIndexSize   = errors.New("max index size must hold at least one record")
	ErrStoreExceedsPositions = errors.New("max store size plus overflow exceeds addressable positions")
)
