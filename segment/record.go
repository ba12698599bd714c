// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/maybe"
	"github.com/ava-labs/avalanchego/utils/units"

	"github.com/ava-labs/seglog/codec"
	"github.com/ava-labs/seglog/consts"
)

// MaxMetadataSize bounds the serialized metadata of a single record.
const MaxMetadataSize = 64 * units.KiB

// Metadata travels with every record value.
type Metadata struct {
	// Index is the logical index of the record. Appends may leave it unset
	// to be assigned the next index.
	Index maybe.Maybe[uint64]
	// Attributes are opaque caller bytes.
	Attributes []byte
}

func (m Metadata) Marshal() ([]byte, error) {
	opw := codec.NewOptionalWriter(consts.Uint64Len+len(m.Attributes)+consts.Uint32Len, MaxMetadataSize)
	opw.PackUint64(m.Index)
	opw.PackBytes(m.Attributes)
	if err := opw.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataTooLarge, err)
	}
	p := codec.NewWriter(consts.Uint64Len+len(opw.Bytes()), MaxMetadataSize)
	p.PackOptional(opw)
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataTooLarge, err)
	}
	return p.Bytes(), nil
}

func UnmarshalMetadata(b []byte) (Metadata, error) {
	p := codec.NewReader(b, MaxMetadataSize)
	opr := p.NewOptionalReader()
	var m Metadata
	m.Index = opr.UnpackUint64()
	opr.UnpackBytes(MaxMetadataSize, &m.Attributes)
	opr.Done()
	if err := p.Err(); err != nil {
		return Metadata{}, err
	}
	if !p.Empty() {
		return Metadata{}, fmt.Errorf("%w: %d unread metadata bytes", codec.ErrTrailingBytes, len(b)-p.Offset())
	}
	return m, nil
}

// Record is a record read back from a segment.
type Record struct {
	Metadata Metadata
	Value    []byte
}

// Index is the logical index the record was stored at.
func (r Record) Index() uint64 {
	return r.Metadata.Index.Value()
}

// frame returns the prefix written ahead of a record value:
// [u32 metadata length][metadata].
func frame(metadata []byte) []byte {
	b := make([]byte, 0, consts.Uint32Len+len(metadata))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(metadata)))
	return append(b, metadata...)
}

// ParseRecord splits a stored record into its metadata and value.
func ParseRecord(b []byte) (Record, error) {
	if len(b) < consts.Uint32Len {
		return Record{}, fmt.Errorf("%w: %d bytes cannot hold a metadata length", ErrCorruptRecord, len(b))
	}
	metaLen := uint64(binary.LittleEndian.Uint32(b))
	end := consts.Uint32Len + metaLen
	if end > uint64(len(b)) {
		return Record{}, fmt.Errorf("%w: metadata length %d exceeds record of %d bytes", ErrCorruptRecord, metaLen, len(b))
	}
	m, err := UnmarshalMetadata(b[consts.Uint32Len:end])
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return Record{
		Metadata: m,
		Value:    b[end:],
	}, nil
}
