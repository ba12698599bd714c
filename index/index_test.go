// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package index

import (
	"errors"
	"testing"

	"github.com/ava-labs/avalanchego/utils/maybe"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ava-labs/seglog/storage"
)

var errDiskFull = errors.New("disk full")

func testRecord(i uint32) Record {
	return Record{
		Checksum: uint64(i) * 1_000_003,
		Length:   10 + i,
		Position: 100 * i,
	}
}

func TestIndexLayout(t *testing.T) {
	require := require.New(t)
	s := storage.NewMemory()

	idx, err := New(s, maybe.Some[uint64](7))
	require.NoError(err)
	require.Zero(s.Size())

	n, err := idx.Append(Record{Checksum: 0x0102030405060708, Length: 0x0a0b0c0d, Position: 0x11121314})
	require.NoError(err)
	require.Equal(uint64(7), n)

	b, err := s.Read(0, s.Size())
	require.NoError(err)
	require.Equal([]byte{
		7, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		8, 7, 6, 5, 4, 3, 2, 1,
		0x0d, 0x0c, 0x0b, 0x0a,
		0x14, 0x13, 0x12, 0x11,
	}, b)
}

func TestIndexAppendReadTruncate(t *testing.T) {
	require := require.New(t)

	idx, err := New(storage.NewMemory(), maybe.Some[uint64](5))
	require.NoError(err)
	for i := uint32(0); i < 4; i++ {
		n, err := idx.Append(testRecord(i))
		require.NoError(err)
		require.Equal(uint64(5+i), n)
	}
	require.Equal(uint64(5), idx.LowestIndex())
	require.Equal(uint64(9), idx.HighestIndex())
	require.Equal(uint64(MarkerSize+4*RecordSize), idx.Size())

	r, err := idx.Read(7)
	require.NoError(err)
	require.Equal(testRecord(2), r)

	_, err = idx.Read(4)
	require.ErrorIs(err, ErrIndexOutOfBounds)
	_, err = idx.Read(9)
	require.ErrorIs(err, ErrIndexOutOfBounds)

	require.NoError(idx.Truncate(7))
	require.NoError(idx.Truncate(7))
	require.Equal(uint64(7), idx.HighestIndex())
	_, err = idx.Read(7)
	require.ErrorIs(err, ErrIndexOutOfBounds)
	require.ErrorIs(idx.Truncate(8), ErrIndexOutOfBounds)

	// Truncating to the base keeps the marker.
	require.NoError(idx.Truncate(5))
	require.Equal(uint64(MarkerSize), idx.Size())
	n, err := idx.Append(testRecord(9))
	require.NoError(err)
	require.Equal(uint64(5), n)
}

func TestIndexReopen(t *testing.T) {
	tests := []struct {
		name        string
		base        maybe.Maybe[uint64]
		empty       bool
		expectedErr error
	}{
		{
			name: "stored base only",
			base: maybe.Nothing[uint64](),
		},
		{
			name: "stored and matching base",
			base: maybe.Some[uint64](3),
		},
		{
			name:        "stored and mismatching base",
			base:        maybe.Some[uint64](4),
			expectedErr: ErrBaseIndexMismatch,
		},
		{
			name:        "nothing stored or provided",
			base:        maybe.Nothing[uint64](),
			empty:       true,
			expectedErr: ErrNoBaseIndex,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			s := storage.NewMemory()
			if !tt.empty {
				idx, err := New(s, maybe.Some[uint64](3))
				require.NoError(err)
				_, err = idx.Append(testRecord(1))
				require.NoError(err)
				_, err = idx.Append(testRecord(2))
				require.NoError(err)
			}

			idx, err := New(s, tt.base)
			require.ErrorIs(err, tt.expectedErr)
			if tt.expectedErr != nil {
				return
			}
			require.Equal(uint64(3), idx.LowestIndex())
			require.Equal(uint64(5), idx.HighestIndex())
			r, err := idx.Read(4)
			require.NoError(err)
			require.Equal(testRecord(2), r)
		})
	}
}

func TestIndexRejectsPartialRecord(t *testing.T) {
	require := require.New(t)

	s := storage.NewMemory()
	idx, err := New(s, maybe.Some[uint64](0))
	require.NoError(err)
	_, err = idx.Append(testRecord(1))
	require.NoError(err)
	_, _, err = s.AppendSlice([]byte{1, 2, 3})
	require.NoError(err)

	_, err = New(s, maybe.Nothing[uint64]())
	require.ErrorIs(err, ErrInconsistentIndexSize)
}

func TestIndexCache(t *testing.T) {
	require := require.New(t)

	s := storage.NewMemory()
	idx, err := New(s, maybe.Some[uint64](0))
	require.NoError(err)
	require.NoError(idx.Cache())
	require.True(idx.IsCached())

	for i := uint32(0); i < 3; i++ {
		_, err := idx.Append(testRecord(i))
		require.NoError(err)
	}

	idx, err = New(s, maybe.Nothing[uint64]())
	require.NoError(err)
	require.False(idx.IsCached())
	require.NoError(idx.Cache())

	// Reads are served from memory once cached.
	require.NoError(s.Overwrite(RecordOffset(1), make([]byte, RecordSize)))
	r, err := idx.Read(1)
	require.NoError(err)
	require.Equal(testRecord(1), r)

	cached := idx.TakeCached()
	require.Len(cached, 3)
	require.False(idx.IsCached())
	r, err = idx.Read(1)
	require.NoError(err)
	require.Equal(Record{}, r)

	require.ErrorIs(idx.RestoreCached(cached[:2]), ErrInconsistentCacheSize)
	require.NoError(idx.RestoreCached(cached))
	require.True(idx.IsCached())

	require.NoError(idx.Truncate(1))
	require.Len(idx.TakeCached(), 1)
}

func TestIndexAppendFailure(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	s := storage.NewMockStorage(ctrl)
	s.EXPECT().Size().Return(uint64(0)).AnyTimes()
	s.EXPECT().AppendSlice(gomock.Len(MarkerSize+RecordSize)).Return(uint64(0), uint64(0), errDiskFull)

	idx, err := New(s, maybe.Some[uint64](1))
	require.NoError(err)
	require.NoError(idx.Cache())

	_, err = idx.Append(testRecord(1))
	require.ErrorIs(err, errDiskFull)
	require.Equal(uint64(1), idx.HighestIndex())
	require.Empty(idx.TakeCached())
}

func TestIndexReadFailure(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	marker := appendMarker(nil, 2)
	s := storage.NewMockStorage(ctrl)
	s.EXPECT().Size().Return(uint64(MarkerSize + 2*RecordSize)).AnyTimes()
	s.EXPECT().Read(uint64(0), uint64(MarkerSize)).Return(marker, nil)
	s.EXPECT().Read(RecordOffset(1), uint64(RecordSize)).Return(nil, storage.ErrNotFlushed)
	s.EXPECT().Read(uint64(MarkerSize), uint64(2*RecordSize)).Return(make([]byte, RecordSize), nil)

	idx, err := New(s, maybe.Nothing[uint64]())
	require.NoError(err)
	require.Equal(uint64(4), idx.HighestIndex())

	_, err = idx.Read(3)
	require.ErrorIs(err, storage.ErrNotFlushed)

	require.ErrorIs(idx.Cache(), ErrInconsistentIndexSize)
	require.False(idx.IsCached())
}

func TestNewRecord(t *testing.T) {
	require := require.New(t)

	r, err := NewRecord(1<<32-1, 9, 1<<32-1)
	require.NoError(err)
	require.Equal(uint64(1<<33-2), r.End())

	_, err = NewRecord(1<<32, 9, 1)
	require.ErrorIs(err, ErrPositionOverflow)
	_, err = NewRecord(0, 9, 1<<32)
	require.ErrorIs(err, ErrLengthOverflow)
}
