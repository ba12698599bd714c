// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package segment couples one index and one store under shared capacity
// limits. A Segment is the unit of rotation, caching and removal in a
// segmented log.
package segment

import (
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/utils/maybe"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/seglog/index"
	"github.com/ava-labs/seglog/storage"
	"github.com/ava-labs/seglog/store"
)

// Info is a point-in-time description of a Segment.
type Info struct {
	BaseIndex    uint64
	HighestIndex uint64
	StoreSize    uint64
	IndexSize    uint64
	IndexCached  bool
	CreatedAt    time.Time
}

// Segment is not safe for concurrent use.
type Segment struct {
	provider storage.Provider
	base     uint64
	config   Config
	clock    *mockable.Clock

	index *index.Index
	store *store.Store

	createdAt time.Time
}

// Open obtains the storages of the segment starting at [base] from
// [provider]. Store bytes that no index record references (left behind by
// an interrupted append) are discarded.
func Open(provider storage.Provider, base uint64, config Config, clock *mockable.Clock) (*Segment, error) {
	s := &Segment{
		provider:  provider,
		base:      base,
		config:    config,
		clock:     clock,
		createdAt: clock.Time(),
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	if err := s.trimStore(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Segment) open() error {
	ss, err := s.provider.Obtain(s.base)
	if err != nil {
		return fmt.Errorf("unable to obtain storage for segment %d: %w", s.base, err)
	}
	idx, err := index.New(ss.Index, maybe.Some(s.base))
	if err != nil {
		errs := wrappers.Errs{}
		errs.Add(err, ss.Index.Close(), ss.Store.Close())
		return errs.Err
	}
	s.index = idx
	s.store = store.New(ss.Store)
	return nil
}

func (s *Segment) trimStore() error {
	var end uint64
	if s.index.Len() > 0 {
		last, err := s.index.Read(s.index.HighestIndex() - 1)
		if err != nil {
			return err
		}
		end = last.End()
	}
	size := s.store.Size()
	switch {
	case size < end:
		return fmt.Errorf("%w: store of segment %d has %d bytes, index references %d", ErrCorruptRecord, s.base, size, end)
	case size > end:
		return s.store.Truncate(end)
	default:
		return nil
	}
}

// Append writes a record and returns the index assigned to it.
//
// If [metadata] carries an index, it must equal HighestIndex.
func (s *Segment) Append(metadata Metadata, value storage.Stream) (uint64, error) {
	if s.IsMaxed() {
		return 0, ErrSegmentMaxed
	}
	next := s.index.HighestIndex()
	if metadata.Index.HasValue() && metadata.Index.Value() != next {
		return 0, fmt.Errorf("%w: got %d, next is %d", ErrIndexMismatch, metadata.Index.Value(), next)
	}
	metadata.Index = maybe.Some(next)
	meta, err := metadata.Marshal()
	if err != nil {
		return 0, err
	}

	threshold := s.config.MaxStoreSize - s.store.Size() + s.config.MaxStoreOverflow
	position, header, err := s.store.Append(
		storage.Concat(storage.Slices(frame(meta)), value),
		maybe.Some(threshold),
	)
	if err != nil {
		return 0, err
	}

	r, err := index.NewRecord(position, header.Checksum, header.Length)
	if err == nil {
		_, err = s.index.Append(r)
	}
	if err != nil {
		if terr := s.store.Truncate(position); terr != nil {
			return 0, fmt.Errorf("%w: unable to roll back store: %w", err, terr)
		}
		return 0, err
	}
	return next, nil
}

func (s *Segment) Read(idx uint64) (Record, error) {
	r, err := s.index.Read(idx)
	if err != nil {
		return Record{}, err
	}
	b, err := s.store.Read(uint64(r.Position), store.Header{
		Checksum: r.Checksum,
		Length:   uint64(r.Length),
	})
	if err != nil {
		return Record{}, fmt.Errorf("unable to read record %d: %w", idx, err)
	}
	return ParseRecord(b)
}

// Truncate discards every record at or after [idx].
func (s *Segment) Truncate(idx uint64) error {
	if idx == s.index.HighestIndex() {
		return nil
	}
	r, err := s.index.Read(idx)
	if err != nil {
		return err
	}
	if err := s.index.Truncate(idx); err != nil {
		return err
	}
	return s.store.Truncate(uint64(r.Position))
}

// IsMaxed returns true once either the store or the index reached its
// configured size.
func (s *Segment) IsMaxed() bool {
	return s.store.Size() >= s.config.MaxStoreSize || s.index.Size() >= s.config.MaxIndexSize
}

// HasExpired returns true if the segment is at least [d] old.
func (s *Segment) HasExpired(d time.Duration) bool {
	return s.clock.Time().Sub(s.createdAt) >= d
}

// Flush closes and reopens the underlying storages, persisting anything
// they buffered. A cached index survives the reopen. The creation time of
// an empty segment is reset.
func (s *Segment) Flush() error {
	cached := s.index.TakeCached()
	errs := wrappers.Errs{}
	errs.Add(s.index.Close(), s.store.Close())
	if errs.Errored() {
		return errs.Err
	}
	if err := s.open(); err != nil {
		return err
	}
	if err := s.index.RestoreCached(cached); err != nil {
		return err
	}
	if s.IsEmpty() {
		s.createdAt = s.clock.Time()
	}
	return nil
}

func (s *Segment) CacheIndex() error {
	return s.index.Cache()
}

// TakeCachedIndex drops the cached index records, returning them.
func (s *Segment) TakeCachedIndex() []index.Record {
	return s.index.TakeCached()
}

func (s *Segment) IsIndexCached() bool {
	return s.index.IsCached()
}

func (s *Segment) BaseIndex() uint64 {
	return s.base
}

func (s *Segment) LowestIndex() uint64 {
	return s.index.LowestIndex()
}

func (s *Segment) HighestIndex() uint64 {
	return s.index.HighestIndex()
}

// Len is the number of records held.
func (s *Segment) Len() uint64 {
	return s.index.Len()
}

func (s *Segment) IsEmpty() bool {
	return s.index.Len() == 0
}

// Contains returns true if [idx] is served by this segment.
func (s *Segment) Contains(idx uint64) bool {
	return s.index.LowestIndex() <= idx && idx < s.index.HighestIndex()
}

func (s *Segment) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Segment) Info() Info {
	return Info{
		BaseIndex:    s.base,
		HighestIndex: s.index.HighestIndex(),
		StoreSize:    s.store.Size(),
		IndexSize:    s.index.Size(),
		IndexCached:  s.index.IsCached(),
		CreatedAt:    s.createdAt,
	}
}

func (s *Segment) Close() error {
	errs := wrappers.Errs{}
	errs.Add(s.index.Close(), s.store.Close())
	return errs.Err
}

// Remove deletes the underlying storages.
func (s *Segment) Remove() error {
	errs := wrappers.Errs{}
	errs.Add(s.index.Remove(), s.store.Remove())
	return errs.Err
}
