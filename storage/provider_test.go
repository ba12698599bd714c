// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/stretchr/testify/require"
)

func TestMemoryProviderReopen(t *testing.T) {
	require := require.New(t)
	p := NewMemoryProvider()

	s, err := p.Obtain(3)
	require.NoError(err)
	_, _, err = s.Store.AppendSlice([]byte("persisted"))
	require.NoError(err)
	require.NoError(s.Store.Close())
	require.NoError(s.Index.Close())

	s, err = p.Obtain(3)
	require.NoError(err)
	b, err := s.Store.Read(0, 9)
	require.NoError(err)
	require.Equal([]byte("persisted"), b)

	bases, err := p.BaseIndices()
	require.NoError(err)
	require.Equal([]uint64{3}, bases)

	require.NoError(s.Index.Remove())
	require.NoError(s.Store.Remove())
	bases, err = p.BaseIndices()
	require.NoError(err)
	require.Empty(bases)
}

func TestKVProvider(t *testing.T) {
	require := require.New(t)
	db := memdb.New()
	p := NewKVProvider(db, 4)

	for _, base := range []uint64{300, 7} {
		s, err := p.Obtain(base)
		require.NoError(err)
		_, _, err = s.Store.AppendSlice([]byte("spans three pages"))
		require.NoError(err)
		_, _, err = s.Index.AppendSlice([]byte("idx"))
		require.NoError(err)
	}
	bases, err := p.BaseIndices()
	require.NoError(err)
	require.Equal([]uint64{7, 300}, bases)

	// Reopening reads the persisted size and tail page back.
	p = NewKVProvider(db, 4)
	s, err := p.Obtain(300)
	require.NoError(err)
	require.Equal(uint64(17), s.Store.Size())
	_, _, err = s.Store.AppendSlice([]byte("!"))
	require.NoError(err)
	b, err := s.Store.Read(12, 6)
	require.NoError(err)
	require.Equal([]byte("pages!"), b)

	require.NoError(s.Store.Truncate(5))
	b, err = s.Store.Read(0, 5)
	require.NoError(err)
	require.Equal([]byte("spans"), b)

	require.NoError(s.Index.Remove())
	require.NoError(s.Store.Remove())
	bases, err = p.BaseIndices()
	require.NoError(err)
	require.Equal([]uint64{7}, bases)
}
