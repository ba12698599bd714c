// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package seglog implements an indexed segmented log: an append-only,
// randomly readable record store split into capacity-bounded segments.
//
// All segments but the last are read segments. The last one is the write
// segment that every append goes to; once it is maxed it is rotated into
// the read segments and a new write segment starts where it ended.
package seglog

import (
	"fmt"
	"sort"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/seglog/cache"
	"github.com/ava-labs/seglog/segment"
	"github.com/ava-labs/seglog/storage"
)

// Log is not safe for concurrent use. See Shared.
type Log struct {
	log      logging.Logger
	config   Config
	provider storage.Provider
	clock    *mockable.Clock
	metrics  *metrics

	readSegments []*segment.Segment
	writeSegment *segment.Segment

	// cached tracks which read segments hold their index in memory. It is
	// nil unless caching is bounded.
	cached cache.Policy[uint64]
}

// New opens every segment [provider] already holds, or starts a new log at
// [config.InitialIndex] if there are none.
func New(
	logger logging.Logger,
	registerer prometheus.Registerer,
	provider storage.Provider,
	clock *mockable.Clock,
	config Config,
) (*Log, error) {
	start := time.Now()
	if err := config.Verify(); err != nil {
		return nil, err
	}
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}
	l := &Log{
		log:      logger,
		config:   config,
		provider: provider,
		clock:    clock,
		metrics:  m,
	}
	if bound := config.IndexCachedReadSegments; bound.HasValue() && bound.Value() > 0 {
		l.cached, err = config.NewPolicy(bound.Value())
		if err != nil {
			return nil, err
		}
	}

	bases, err := provider.BaseIndices()
	if err != nil {
		return nil, err
	}
	if len(bases) == 0 {
		bases = []uint64{config.InitialIndex}
	}
	if err := l.load(bases); err != nil {
		return nil, err
	}
	l.updateGauges()
	logger.Info(
		"opened segmented log",
		zap.Int("segments", len(l.readSegments)+1),
		zap.Uint64("lowest index", l.LowestIndex()),
		zap.Uint64("highest index", l.HighestIndex()),
		zap.Duration("duration", time.Since(start)),
	)
	return l, nil
}

func (l *Log) load(bases []uint64) error {
	var (
		readBases = bases[:len(bases)-1]
		segments  = make([]*segment.Segment, len(readBases))
		g         errgroup.Group
	)
	for i, base := range readBases {
		i, base := i, base
		g.Go(func() error {
			s, err := segment.Open(l.provider, base, l.config.Segment, l.clock)
			if err != nil {
				return err
			}
			segments[i] = s
			if l.config.IndexCachedReadSegments.IsNothing() {
				return s.CacheIndex()
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		l.writeSegment, err = l.openWriteSegment(bases[len(bases)-1])
	}
	if err == nil {
		err = verifyContiguous(segments, l.writeSegment)
	}
	if err != nil {
		for _, s := range segments {
			if s != nil {
				_ = s.Close()
			}
		}
		if l.writeSegment != nil {
			_ = l.writeSegment.Close()
		}
		return err
	}
	l.readSegments = segments
	return nil
}

func verifyContiguous(readSegments []*segment.Segment, writeSegment *segment.Segment) error {
	all := append(readSegments[:len(readSegments):len(readSegments)], writeSegment)
	for i := 1; i < len(all); i++ {
		if prev, next := all[i-1].HighestIndex(), all[i].BaseIndex(); prev != next {
			return fmt.Errorf("%w: segment ending at %d followed by segment starting at %d", ErrSegmentGap, prev, next)
		}
	}
	return nil
}

// openWriteSegment opens the segment at [base] with its index cached.
func (l *Log) openWriteSegment(base uint64) (*segment.Segment, error) {
	s, err := segment.Open(l.provider, base, l.config.Segment, l.clock)
	if err != nil {
		return nil, err
	}
	if err := s.CacheIndex(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// LowestIndex is the first index that can be read.
func (l *Log) LowestIndex() uint64 {
	if len(l.readSegments) > 0 {
		return l.readSegments[0].LowestIndex()
	}
	return l.writeSegment.LowestIndex()
}

// HighestIndex is the index the next append is assigned.
func (l *Log) HighestIndex() uint64 {
	return l.writeSegment.HighestIndex()
}

// segmentFor returns the segment holding [idx] and its position in
// l.readSegments, or -1 for the write segment.
func (l *Log) segmentFor(idx uint64) (*segment.Segment, int, error) {
	if idx < l.LowestIndex() || idx >= l.HighestIndex() {
		return nil, 0, fmt.Errorf("%w: %d not in [%d, %d)", ErrIndexOutOfBounds, idx, l.LowestIndex(), l.HighestIndex())
	}
	i := sort.Search(len(l.readSegments), func(i int) bool {
		return l.readSegments[i].HighestIndex() > idx
	})
	if i < len(l.readSegments) && l.readSegments[i].Contains(idx) {
		return l.readSegments[i], i, nil
	}
	return l.writeSegment, -1, nil
}

// Read returns the record at [idx]. It never changes which indices are
// cached.
func (l *Log) Read(idx uint64) (segment.Record, error) {
	s, _, err := l.segmentFor(idx)
	if err != nil {
		return segment.Record{}, err
	}
	r, err := s.Read(idx)
	if err != nil {
		return segment.Record{}, err
	}
	l.metrics.reads.Inc()
	return r, nil
}

// ReadExclusive returns the record at [idx], loading the index of the
// segment holding it into memory if caching is bounded. Loading may evict
// the cached index of another read segment.
func (l *Log) ReadExclusive(idx uint64) (segment.Record, error) {
	s, i, err := l.segmentFor(idx)
	if err != nil {
		return segment.Record{}, err
	}
	if i >= 0 {
		if err := l.probe(s); err != nil {
			return segment.Record{}, err
		}
	}
	r, err := s.Read(idx)
	if err != nil {
		return segment.Record{}, err
	}
	l.metrics.reads.Inc()
	return r, nil
}

// probe registers an access to the read segment [s].
func (l *Log) probe(s *segment.Segment) error {
	if l.cached == nil {
		return nil
	}
	if l.cached.Query(s.BaseIndex(), true) {
		return nil
	}
	if err := l.track(s); err != nil {
		return err
	}
	if err := s.CacheIndex(); err != nil {
		l.cached.Remove(s.BaseIndex())
		return err
	}
	l.updateGauges()
	return nil
}

// track inserts [s] into the cache policy, dropping the cached index of the
// segment it evicts.
func (l *Log) track(s *segment.Segment) error {
	evicted, ok := l.cached.Insert(s.BaseIndex())
	if !ok {
		return nil
	}
	victim, found := l.readSegmentAt(evicted)
	if !found {
		return fmt.Errorf("evicted segment %d is not a read segment", evicted)
	}
	victim.TakeCachedIndex()
	l.log.Debug("dropped cached index", zap.Uint64("segment", evicted))
	return nil
}

func (l *Log) readSegmentAt(base uint64) (*segment.Segment, bool) {
	i := sort.Search(len(l.readSegments), func(i int) bool {
		return l.readSegments[i].BaseIndex() >= base
	})
	if i < len(l.readSegments) && l.readSegments[i].BaseIndex() == base {
		return l.readSegments[i], true
	}
	return nil, false
}

// Append writes a record and returns its index, rotating the write segment
// first if it is maxed.
func (l *Log) Append(metadata segment.Metadata, value storage.Stream) (uint64, error) {
	start := time.Now()
	if l.writeSegment.IsMaxed() {
		if err := l.rotate(); err != nil {
			return 0, err
		}
	}
	before := l.writeSegment.Info().StoreSize
	idx, err := l.writeSegment.Append(metadata, value)
	if err != nil {
		return 0, err
	}
	l.metrics.appends.Inc()
	l.metrics.appendedBytes.Add(float64(l.writeSegment.Info().StoreSize - before))
	l.metrics.appendLatency.Observe(float64(time.Since(start)))
	return idx, nil
}

// Rotate moves the write segment into the read segments and starts a new
// one. An empty write segment is not rotated.
func (l *Log) Rotate() error {
	if l.writeSegment.IsEmpty() {
		return nil
	}
	return l.rotate()
}

func (l *Log) rotate() error {
	old := l.writeSegment
	if err := old.Flush(); err != nil {
		return err
	}
	next, err := l.openWriteSegment(old.HighestIndex())
	if err != nil {
		return err
	}

	l.readSegments = append(l.readSegments, old)
	l.writeSegment = next
	switch {
	case l.cached != nil:
		if err := l.track(old); err != nil {
			return err
		}
	case l.config.IndexCachedReadSegments.HasValue():
		old.TakeCachedIndex()
	}

	l.metrics.rotations.Inc()
	l.updateGauges()
	l.log.Debug(
		"rotated write segment",
		zap.Uint64("previous", old.BaseIndex()),
		zap.Uint64("next", next.BaseIndex()),
	)
	return nil
}

// Truncate discards every record at or after [idx]. Truncating at
// HighestIndex is a no-op.
func (l *Log) Truncate(idx uint64) error {
	lowest, highest := l.LowestIndex(), l.HighestIndex()
	if idx < lowest || idx > highest {
		return fmt.Errorf("%w: cannot truncate at %d outside [%d, %d]", ErrIndexOutOfBounds, idx, lowest, highest)
	}
	if idx == highest {
		return nil
	}
	removed := highest - idx

	if idx >= l.writeSegment.LowestIndex() {
		if err := l.writeSegment.Truncate(idx); err != nil {
			return err
		}
		l.finishTruncate(idx, removed)
		return nil
	}

	_, i, err := l.segmentFor(idx)
	if err != nil {
		return err
	}
	target := l.readSegments[i]
	if err := target.Truncate(idx); err != nil {
		return err
	}

	// A segment left empty is removed too so its base index can start the
	// new write segment.
	keep := i + 1
	if target.IsEmpty() {
		keep = i
	}
	errs := wrappers.Errs{}
	for _, s := range l.readSegments[keep:] {
		errs.Add(l.removeSegment(s))
	}
	errs.Add(l.removeSegment(l.writeSegment))
	l.readSegments = l.readSegments[:keep]
	if errs.Errored() {
		return errs.Err
	}

	l.writeSegment, err = l.openWriteSegment(idx)
	if err != nil {
		return err
	}
	l.finishTruncate(idx, removed)
	return nil
}

func (l *Log) finishTruncate(idx uint64, removed uint64) {
	l.metrics.truncations.Inc()
	l.updateGauges()
	l.log.Info(
		"truncated log",
		zap.Uint64("index", idx),
		zap.Uint64("removed", removed),
	)
}

// removeSegment deletes [s] and forgets any cached index it had.
func (l *Log) removeSegment(s *segment.Segment) error {
	if l.cached != nil {
		l.cached.Remove(s.BaseIndex())
	}
	if err := s.Remove(); err != nil {
		l.log.Warn("could not remove segment", zap.Uint64("segment", s.BaseIndex()), zap.Error(err))
		return err
	}
	return nil
}

// RemoveExpired removes every segment at least [d] old and returns the
// number of records removed.
//
// Segments are created in index order, so the expired segments are always
// a prefix of the log.
func (l *Log) RemoveExpired(d time.Duration) (uint64, error) {
	if l.writeSegment.IsEmpty() {
		if err := l.writeSegment.Flush(); err != nil {
			return 0, err
		}
	}

	all := append(l.readSegments[:len(l.readSegments):len(l.readSegments)], l.writeSegment)
	expired := sort.Search(len(all), func(i int) bool {
		return !all[i].HasExpired(d)
	})
	if expired == 0 {
		return 0, nil
	}

	var (
		removed uint64
		errs    = wrappers.Errs{}
	)
	for _, s := range all[:expired] {
		removed += s.Len()
		errs.Add(l.removeSegment(s))
	}
	next := all[expired-1].HighestIndex()
	kept := all[expired:]
	if len(kept) > 0 {
		l.readSegments = kept[:len(kept)-1]
		l.writeSegment = kept[len(kept)-1]
	} else {
		l.readSegments = nil
	}
	if errs.Errored() {
		return removed, errs.Err
	}
	if len(kept) == 0 {
		s, err := l.openWriteSegment(next)
		if err != nil {
			return removed, err
		}
		l.writeSegment = s
	}

	l.metrics.expiredRecords.Add(float64(removed))
	l.updateGauges()
	l.log.Info(
		"removed expired segments",
		zap.Int("segments", expired),
		zap.Uint64("records", removed),
		zap.Uint64("lowest index", l.LowestIndex()),
	)
	return removed, nil
}

// Flush persists anything buffered by the write segment.
func (l *Log) Flush() error {
	return l.writeSegment.Flush()
}

// Scan calls [fn] with every record from [from] up to HighestIndex, in
// order. It stops at the first error [fn] returns.
func (l *Log) Scan(from uint64, fn func(idx uint64, r segment.Record) error) error {
	lowest, highest := l.LowestIndex(), l.HighestIndex()
	if from < lowest || from > highest {
		return fmt.Errorf("%w: cannot scan from %d outside [%d, %d]", ErrIndexOutOfBounds, from, lowest, highest)
	}
	for idx := from; idx < highest; idx++ {
		r, err := l.Read(idx)
		if err != nil {
			return err
		}
		if err := fn(idx, r); err != nil {
			return err
		}
	}
	return nil
}

// Segments describes every segment, the write segment last.
func (l *Log) Segments() []segment.Info {
	infos := make([]segment.Info, 0, len(l.readSegments)+1)
	for _, s := range l.readSegments {
		infos = append(infos, s.Info())
	}
	return append(infos, l.writeSegment.Info())
}

func (l *Log) updateGauges() {
	cached := 0
	for _, s := range l.readSegments {
		if s.IsIndexCached() {
			cached++
		}
	}
	l.metrics.segments.Set(float64(len(l.readSegments) + 1))
	l.metrics.cachedReadSegments.Set(float64(cached))
}

// Close closes every segment without removing any data.
func (l *Log) Close() error {
	errs := wrappers.Errs{}
	for _, s := range l.readSegments {
		errs.Add(s.Close())
	}
	errs.Add(l.writeSegment.Close())
	l.log.Info(
		"closed segmented log",
		zap.Int("segments", len(l.readSegments)+1),
		zap.Uint64("highest index", l.HighestIndex()),
	)
	return errs.Err
}

// Remove deletes every segment.
func (l *Log) Remove() error {
	errs := wrappers.Errs{}
	for _, s := range l.readSegments {
		errs.Add(s.Remove())
	}
	errs.Add(l.writeSegment.Remove())
	l.readSegments = nil
	l.log.Info("removed segmented log")
	return errs.Err
}
