// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileBuffering(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "0.store")

	f, err := OpenFile(path, 16)
	require.NoError(err)

	_, _, err = f.AppendSlice([]byte("buffered"))
	require.NoError(err)
	require.Equal(uint64(8), f.Size())

	// Nothing has reached the file yet.
	fi, err := os.Stat(path)
	require.NoError(err)
	require.Zero(fi.Size())
	_, err = f.Read(0, 8)
	require.ErrorIs(err, ErrNotFlushed)

	// Overflowing the buffer flushes what was pending first.
	_, _, err = f.AppendSlice([]byte("more than sixteen bytes"))
	require.NoError(err)
	b, err := f.Read(0, 8)
	require.NoError(err)
	require.Equal([]byte("buffered"), b)

	// Truncating into flushed bytes drops any pending ones too.
	_, _, err = f.AppendSlice([]byte("tail"))
	require.NoError(err)
	require.NoError(f.Truncate(4))
	require.Equal(uint64(4), f.Size())
	require.NoError(f.Close())

	f, err = OpenFile(path, 16)
	require.NoError(err)
	require.Equal(uint64(4), f.Size())
	b, err = f.Read(0, 4)
	require.NoError(err)
	require.Equal([]byte("buff"), b)

	require.NoError(f.Remove())
	_, err = os.Stat(path)
	require.True(os.IsNotExist(err))
}

func TestFileTruncateWithinBuffer(t *testing.T) {
	require := require.New(t)

	f, err := OpenFile(filepath.Join(t.TempDir(), "0.index"), 32)
	require.NoError(err)
	_, _, err = f.AppendSlice([]byte("0123456789"))
	require.NoError(err)
	require.NoError(f.Sync())
	_, _, err = f.AppendSlice([]byte("abcdef"))
	require.NoError(err)

	require.NoError(f.Truncate(13))
	require.NoError(f.Sync())
	b, err := f.Read(0, 13)
	require.NoError(err)
	require.Equal([]byte("0123456789abc"), b)
	require.NoError(f.Close())
}

func TestDiskProvider(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	p, err := NewDiskProvider(dir, 0)
	require.NoError(err)

	_, err = NewDiskProvider(dir, 0)
	require.ErrorIs(err, ErrDirectoryLocked)

	for _, base := range []uint64{12, 0, 5} {
		s, err := p.Obtain(base)
		require.NoError(err)
		_, _, err = s.Store.AppendSlice([]byte("x"))
		require.NoError(err)
		require.NoError(s.Index.Close())
		require.NoError(s.Store.Close())
	}
	bases, err := p.BaseIndices()
	require.NoError(err)
	require.Equal([]uint64{0, 5, 12}, bases)

	s, err := p.Obtain(5)
	require.NoError(err)
	require.Equal(uint64(1), s.Store.Size())
	require.NoError(s.Index.Remove())
	require.NoError(s.Store.Remove())

	bases, err = p.BaseIndices()
	require.NoError(err)
	require.Equal([]uint64{0, 12}, bases)

	require.NoError(p.Close())
	p, err = NewDiskProvider(dir, 0)
	require.NoError(err)
	require.NoError(p.Close())
}
