// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import "errors"

var (
	ErrTooManyItems      = errors.New("too many items")
	ErrFieldNotPopulated = errors.New("field is not populated")
	ErrInvalidBitset     = errors.New("invalid bitset")
	ErrTrailingBytes     = errors.New("trailing bytes")
)
