// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"github.com/ava-labs/avalanchego/utils/maybe"
	"github.com/ava-labs/avalanchego/utils/set"

	"github.com/ava-labs/seglog/consts"
)

// OptionalPacker defines a struct that includes a Packer [ip], a bitset
// [b] and an offset [offset]. [b] indicates which fields in the OptionalPacker
// are present and which are not.
type OptionalPacker struct {
	b      set.Bits64
	offset uint8
	ip     *Packer
}

// NewOptionalWriter returns an OptionalPacker that buffers up to [limit]
// bytes of present fields.
func NewOptionalWriter(initial, limit int) *OptionalPacker {
	return &OptionalPacker{
		ip: NewWriter(initial, limit),
	}
}

// NewOptionalReader reads the presence bitset from [p] and returns an
// OptionalPacker that unpacks the fields following it.
func (p *Packer) NewOptionalReader() *OptionalPacker {
	o := &OptionalPacker{
		ip: p,
	}
	o.b = set.Bits64(o.ip.UnpackUint64(false))
	return o
}

// setBit marks the field at o.offset as present and increments the offset.
func (o *OptionalPacker) setBit() {
	if o.offset > consts.MaxUint64Offset {
		o.ip.addErr(ErrTooManyItems)
		return
	}
	o.b.Add(uint(o.offset))
	o.offset++
}

func (o *OptionalPacker) skipBit() {
	if o.offset > consts.MaxUint64Offset {
		o.ip.addErr(ErrTooManyItems)
		return
	}
	o.offset++
}

// checkBit returns whether the field at the current offset is present and
// increments the offset.
func (o *OptionalPacker) checkBit() bool {
	result := o.b.Contains(uint(o.offset))
	o.offset++
	return result
}

// PackUint64 packs [v] if it holds a value. Unlike the zero-skipping
// encodings of other fields, 0 is a legitimate value here.
func (o *OptionalPacker) PackUint64(v maybe.Maybe[uint64]) {
	if v.IsNothing() {
		o.skipBit()
		return
	}
	o.ip.PackUint64(v.Value())
	o.setBit()
}

func (o *OptionalPacker) UnpackUint64() maybe.Maybe[uint64] {
	if o.checkBit() {
		return maybe.Some(o.ip.UnpackUint64(false))
	}
	return maybe.Nothing[uint64]()
}

// PackBytes packs [b] if it is not empty.
func (o *OptionalPacker) PackBytes(b []byte) {
	if len(b) == 0 {
		o.skipBit()
		return
	}
	o.ip.PackBytes(b)
	o.setBit()
}

func (o *OptionalPacker) UnpackBytes(limit int, dest *[]byte) {
	if o.checkBit() {
		o.ip.UnpackBytes(limit, true, dest)
	} else {
		*dest = nil
	}
}

// PackOptional packs an OptionalPacker in a Packer. First packs the bitset [o.b]
// followed by the bytes in the OptionalPacker.
func (p *Packer) PackOptional(o *OptionalPacker) {
	p.PackUint64(uint64(o.b))
	p.PackFixedBytes(o.ip.Bytes())
}

// Done is called when done reading items from an OptionalPacker. It asserts
// that no bits are populated above the largest read offset.
func (o *OptionalPacker) Done() {
	if o.offset == consts.MaxUint64Offset+1 {
		return
	}
	var maxSet set.Bits64
	maxSet.Add(uint(o.offset))
	if o.b < maxSet {
		return
	}
	o.ip.addErr(ErrInvalidBitset)
}

// Bytes returns the packed present fields, without the bitset.
func (o *OptionalPacker) Bytes() []byte {
	return o.ip.Bytes()
}

// Err returns any error associated with the inner Packer.
func (o *OptionalPacker) Err() error {
	return o.ip.Err()
}
