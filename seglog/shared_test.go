// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package seglog

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/seglog/segment"
	"github.com/ava-labs/seglog/storage"
)

func TestSharedConcurrentReads(t *testing.T) {
	require := require.New(t)
	l := newTestLog(t, storage.NewMemoryProvider(), &mockable.Clock{}, testConfig())
	s, err := NewShared(l, 4)
	require.NoError(err)

	for i := 0; i < 6; i++ {
		_, err := s.Append(segment.Metadata{}, storage.Slices(value(i)))
		require.NoError(err)
	}

	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < 16; w++ {
		g.Go(func() error {
			for idx := s.LowestIndex(); idx < s.HighestIndex(); idx++ {
				r, err := s.Read(ctx, idx)
				if err != nil {
					return err
				}
				if r.Index() != idx {
					return ErrIndexOutOfBounds
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		_, err := s.ReadExclusive(3)
		return err
	})
	require.NoError(g.Wait())

	var count int
	require.NoError(s.Scan(context.Background(), 0, func(uint64, segment.Record) error {
		count++
		return nil
	}))
	require.Equal(6, count)
}

func TestSharedReadHonoursContext(t *testing.T) {
	require := require.New(t)
	l := newTestLog(t, storage.NewMemoryProvider(), &mockable.Clock{}, testConfig())
	s, err := NewShared(l, 1)
	require.NoError(err)
	_, err = s.Append(segment.Metadata{}, storage.Slices(value(0)))
	require.NoError(err)

	// Occupy the only read slot.
	require.NoError(s.reads.Acquire(context.Background(), 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Read(ctx, 0)
	require.ErrorIs(err, context.Canceled)
	require.ErrorIs(s.Scan(ctx, 0, nil), context.Canceled)
	s.reads.Release(1)

	r, err := s.Read(context.Background(), 0)
	require.NoError(err)
	require.Equal(value(0), r.Value)

	require.NoError(s.Truncate(0))
	require.Zero(s.HighestIndex())
	removed, err := s.RemoveExpired(0)
	require.NoError(err)
	require.Zero(removed)
	require.NoError(s.Flush())
	require.NoError(s.Rotate())
	require.Len(s.Segments(), 1)
	require.NoError(s.Remove())
}

func TestNewSharedInvalidConcurrency(t *testing.T) {
	_, err := NewShared(nil, 0)
	require.ErrorIs(t, err, ErrInvalidConcurrency)
}
