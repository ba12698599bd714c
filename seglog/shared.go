// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package seglog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ava-labs/seglog/segment"
	"github.com/ava-labs/seglog/storage"
)

// Shared lets one writer and many readers use a Log concurrently. Plain
// reads share a read lock and are bounded by a semaphore; everything that
// mutates the log, including exclusive reads, takes the write lock.
type Shared struct {
	lock  sync.RWMutex
	reads *semaphore.Weighted
	log   *Log
}

// NewShared wraps [log], admitting at most [maxConcurrentReads] reads at
// once.
func NewShared(log *Log, maxConcurrentReads int64) (*Shared, error) {
	if maxConcurrentReads <= 0 {
		return nil, ErrInvalidConcurrency
	}
	return &Shared{
		reads: semaphore.NewWeighted(maxConcurrentReads),
		log:   log,
	}, nil
}

func (s *Shared) acquire(ctx context.Context) error {
	if err := s.reads.Acquire(ctx, 1); err != nil {
		return err
	}
	s.lock.RLock()
	return nil
}

func (s *Shared) release() {
	s.lock.RUnlock()
	s.reads.Release(1)
}

// Read waits for a read slot or for [ctx] to be done.
func (s *Shared) Read(ctx context.Context, idx uint64) (segment.Record, error) {
	if err := s.acquire(ctx); err != nil {
		return segment.Record{}, err
	}
	defer s.release()

	return s.log.Read(idx)
}

// Scan holds a single read slot for the whole scan. [ctx] is checked
// between records.
func (s *Shared) Scan(ctx context.Context, from uint64, fn func(idx uint64, r segment.Record) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	return s.log.Scan(from, func(idx uint64, r segment.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(idx, r)
	})
}

func (s *Shared) ReadExclusive(idx uint64) (segment.Record, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.log.ReadExclusive(idx)
}

func (s *Shared) Append(metadata segment.Metadata, value storage.Stream) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.log.Append(metadata, value)
}

func (s *Shared) Truncate(idx uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.log.Truncate(idx)
}

func (s *Shared) RemoveExpired(d time.Duration) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.log.RemoveExpired(d)
}

func (s *Shared) Flush() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.log.Flush()
}

func (s *Shared) Rotate() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.log.Rotate()
}

func (s *Shared) LowestIndex() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.log.LowestIndex()
}

func (s *Shared) HighestIndex() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.log.HighestIndex()
}

func (s *Shared) Segments() []segment.Info {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.log.Segments()
}

func (s *Shared) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.log.Close()
}

func (s *Shared) Remove() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.log.Remove()
}
