// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package index

import (
	"encoding/binary"
	"fmt"

	"github.com/ava-labs/seglog/consts"
)

const (
	// RecordSize is the width of every persisted Record.
	RecordSize = consts.Uint64Len + 2*consts.Uint32Len

	// MarkerSize is the width of the base index marker that precedes the
	// records. The trailing 8 bytes are padding so records stay aligned to
	// RecordSize.
	MarkerSize = 2 * consts.Uint64Len
)

// Record locates one logical record in a store. The logical index of a
// Record is never persisted: it is derived from the Record's offset.
type Record struct {
	Checksum uint64
	Length   uint32
	Position uint32
}

// NewRecord returns the Record for a store entry of [length] bytes written
// at [position].
func NewRecord(position uint64, checksum uint64, length uint64) (Record, error) {
	if position > uint64(consts.MaxUint32) {
		return Record{}, fmt.Errorf("%w: %d", ErrPositionOverflow, position)
	}
	if length > uint64(consts.MaxUint32) {
		return Record{}, fmt.Errorf("%w: %d", ErrLengthOverflow, length)
	}
	return Record{
		Checksum: checksum,
		Length:   uint32(length),
		Position: uint32(position),
	}, nil
}

// End is the store position just past the record.
func (r Record) End() uint64 {
	return uint64(r.Position) + uint64(r.Length)
}

func (r Record) append(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, r.Checksum)
	dst = binary.LittleEndian.AppendUint32(dst, r.Length)
	return binary.LittleEndian.AppendUint32(dst, r.Position)
}

// DecodeRecord parses a single persisted Record.
func DecodeRecord(b []byte) (Record, error) {
	if len(b) != RecordSize {
		return Record{}, fmt.Errorf("%w: %d", ErrInvalidRecordSize, len(b))
	}
	return Record{
		Checksum: binary.LittleEndian.Uint64(b),
		Length:   binary.LittleEndian.Uint32(b[consts.Uint64Len:]),
		Position: binary.LittleEndian.Uint32(b[consts.Uint64Len+consts.Uint32Len:]),
	}, nil
}

func appendMarker(dst []byte, base uint64) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, base)
	return binary.LittleEndian.AppendUint64(dst, 0)
}

// DecodeMarker parses the base index marker at the start of an index.
func DecodeMarker(b []byte) (uint64, error) {
	if len(b) != MarkerSize {
		return 0, fmt.Errorf("%w: marker of %d bytes", ErrInvalidRecordSize, len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}

// RecordOffset is the storage offset of the record [n] places past the base.
func RecordOffset(n uint64) uint64 {
	return MarkerSize + n*RecordSize
}
