// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package index maps logical record indices to the position, length and
// checksum of the record in a store.
//
// The persisted layout is a 16-byte base index marker followed by 16-byte
// records, so the record for index i lives at MarkerSize+(i-base)*RecordSize.
package index

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/maybe"

	"github.com/ava-labs/seglog/storage"
)

// Index is an append-only table of Records over a storage.Storage.
//
// Index is not safe for concurrent mutation.
type Index struct {
	s    storage.Storage
	base uint64
	next uint64

	// cached is nil unless the records are held in memory.
	cached []Record
}

// New opens an Index over [s].
//
// If [s] already holds a marker and [base] is set, they must agree. If [s]
// is empty, [base] must be set.
func New(s storage.Storage, base maybe.Maybe[uint64]) (*Index, error) {
	size := s.Size()
	if size < MarkerSize {
		if size != 0 {
			return nil, fmt.Errorf("%w: %d bytes cannot hold a marker", ErrInconsistentIndexSize, size)
		}
		if base.IsNothing() {
			return nil, ErrNoBaseIndex
		}
		return &Index{
			s:    s,
			base: base.Value(),
			next: base.Value(),
		}, nil
	}

	marker, err := s.Read(0, MarkerSize)
	if err != nil {
		return nil, fmt.Errorf("unable to read base index marker: %w", err)
	}
	stored, err := DecodeMarker(marker)
	if err != nil {
		return nil, err
	}
	if base.HasValue() && base.Value() != stored {
		return nil, fmt.Errorf("%w: stored=%d provided=%d", ErrBaseIndexMismatch, stored, base.Value())
	}
	if (size-MarkerSize)%RecordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of records", ErrInconsistentIndexSize, size)
	}
	return &Index{
		s:    s,
		base: stored,
		next: stored + (size-MarkerSize)/RecordSize,
	}, nil
}

// LowestIndex is the first index this Index can hold.
func (i *Index) LowestIndex() uint64 {
	return i.base
}

// HighestIndex is one past the last appended index.
func (i *Index) HighestIndex() uint64 {
	return i.next
}

// Len is the number of records held.
func (i *Index) Len() uint64 {
	return i.next - i.base
}

// Size is the number of bytes used by the underlying storage.
func (i *Index) Size() uint64 {
	return i.s.Size()
}

func (i *Index) Read(idx uint64) (Record, error) {
	if idx < i.base || idx >= i.next {
		return Record{}, fmt.Errorf("%w: %d not in [%d, %d)", ErrIndexOutOfBounds, idx, i.base, i.next)
	}
	if i.cached != nil {
		return i.cached[idx-i.base], nil
	}
	b, err := i.s.Read(RecordOffset(idx-i.base), RecordSize)
	if err != nil {
		return Record{}, fmt.Errorf("unable to read index %d: %w", idx, err)
	}
	return DecodeRecord(b)
}

// Append stores [r] and returns the index assigned to it. The base index
// marker is written together with the first record.
func (i *Index) Append(r Record) (uint64, error) {
	var buf []byte
	if i.s.Size() == 0 {
		buf = make([]byte, 0, MarkerSize+RecordSize)
		buf = appendMarker(buf, i.base)
	} else {
		buf = make([]byte, 0, RecordSize)
	}
	buf = r.append(buf)
	if _, _, err := i.s.AppendSlice(buf); err != nil {
		return 0, fmt.Errorf("unable to append index %d: %w", i.next, err)
	}
	idx := i.next
	i.next++
	if i.cached != nil {
		i.cached = append(i.cached, r)
	}
	return idx, nil
}

// Truncate discards every record at or after [idx]. Truncating at
// HighestIndex is a no-op.
func (i *Index) Truncate(idx uint64) error {
	if idx < i.base || idx > i.next {
		return fmt.Errorf("%w: cannot truncate at %d outside [%d, %d]", ErrIndexOutOfBounds, idx, i.base, i.next)
	}
	if idx == i.next {
		return nil
	}
	if err := i.s.Truncate(RecordOffset(idx - i.base)); err != nil {
		return fmt.Errorf("unable to truncate index at %d: %w", idx, err)
	}
	i.next = idx
	if i.cached != nil {
		i.cached = i.cached[:idx-i.base]
	}
	return nil
}

// Cache loads every stored record into memory. Subsequent reads are served
// from memory until TakeCached is called.
func (i *Index) Cache() error {
	if i.cached != nil {
		return nil
	}
	count := i.Len()
	if count == 0 {
		i.cached = []Record{}
		return nil
	}
	b, err := i.s.Read(MarkerSize, count*RecordSize)
	if err != nil {
		return fmt.Errorf("unable to cache index: %w", err)
	}
	if uint64(len(b)) != count*RecordSize {
		return fmt.Errorf("%w: read %d bytes for %d records", ErrInconsistentIndexSize, len(b), count)
	}
	records := make([]Record, 0, count)
	for off := 0; off < len(b); off += RecordSize {
		r, err := DecodeRecord(b[off : off+RecordSize])
		if err != nil {
			return err
		}
		records = append(records, r)
	}
	i.cached = records
	return nil
}

// IsCached returns true if records are served from memory.
func (i *Index) IsCached() bool {
	return i.cached != nil
}

// TakeCached drops the in-memory records and returns them. The persisted
// records are untouched.
func (i *Index) TakeCached() []Record {
	cached := i.cached
	i.cached = nil
	return cached
}

// RestoreCached installs records previously returned by TakeCached.
func (i *Index) RestoreCached(records []Record) error {
	if records == nil {
		return nil
	}
	if uint64(len(records)) != i.Len() {
		return fmt.Errorf("%w: %d cached records for %d stored", ErrInconsistentCacheSize, len(records), i.Len())
	}
	i.cached = records
	return nil
}

func (i *Index) Close() error {
	return i.s.Close()
}

func (i *Index) Remove() error {
	i.cached = nil
	return i.s.Remove()
}
