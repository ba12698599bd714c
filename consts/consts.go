// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

const (
	Uint32Len = 4
	Uint64Len = 8
	MaxUint32 = ^uint32(0)
	MaxUint64 = ^uint64(0)
	MaxInt    = int(^uint(0) >> 1)

	// MaxUint64Offset is the highest bit offset of a uint64 bitset.
	MaxUint64Offset = 63
)
