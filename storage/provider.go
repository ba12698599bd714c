// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"slices"
	"sync"

	"golang.org/x/exp/maps"
)

const (
	IndexSuffix = ".index"
	StoreSuffix = ".store"
)

var _ Provider = (*MemoryProvider)(nil)

// SegmentStorage is the pair of byte sequences backing one segment.
type SegmentStorage struct {
	Index Storage
	Store Storage
}

// Provider locates (or creates) the storage of the segment starting at a
// given base index.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// BaseIndices returns the base index of every stored segment in
	// ascending order.
	BaseIndices() ([]uint64, error)

	// Obtain opens the storage of the segment starting at [baseIndex],
	// creating it if it does not exist.
	Obtain(baseIndex uint64) (SegmentStorage, error)
}

type memorySegment struct {
	index *buffer
	store *buffer
}

// MemoryProvider hands out Memory storages. Reopening a base index returns a
// handle to the same bytes until they are removed.
type MemoryProvider struct {
	lock     sync.Mutex
	segments map[uint64]*memorySegment
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{segments: make(map[uint64]*memorySegment)}
}

func (p *MemoryProvider) BaseIndices() ([]uint64, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	bases := maps.Keys(p.segments)
	slices.Sort(bases)
	return bases, nil
}

func (p *MemoryProvider) Obtain(baseIndex uint64) (SegmentStorage, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	seg, ok := p.segments[baseIndex]
	if !ok {
		seg = &memorySegment{index: &buffer{}, store: &buffer{}}
		p.segments[baseIndex] = seg
	}
	remove := func() {
		p.lock.Lock()
		defer p.lock.Unlock()

		if p.segments[baseIndex] == seg {
			delete(p.segments, baseIndex)
		}
	}
	return SegmentStorage{
		Index: &Memory{buf: seg.index, onRemove: remove},
		Store: &Memory{buf: seg.store, onRemove: remove},
	}, nil
}

// Store returns the store handle of [baseIndex] if it exists. It is used by
// tests to corrupt data behind the log's back.
func (p *MemoryProvider) Store(baseIndex uint64) (*Memory, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()

	seg, ok := p.segments[baseIndex]
	if !ok {
		return nil, false
	}
	return &Memory{buf: seg.store}, true
}
