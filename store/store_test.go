// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"bytes"
	"testing"

	"github.com/ava-labs/avalanchego/utils/maybe"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/seglog/storage"
)

func TestStoreAppendRead(t *testing.T) {
	require := require.New(t)
	s := New(storage.NewMemory())

	position, header, err := s.Append(storage.Slices([]byte("hello "), []byte("world")), maybe.Nothing[uint64]())
	require.NoError(err)
	require.Zero(position)
	require.Equal(ComputeHeader([]byte("hello world")), header)

	position, header, err = s.Append(
		storage.Reader(bytes.NewReader(bytes.Repeat([]byte{9}, 100)), 7),
		maybe.Some[uint64](100),
	)
	require.NoError(err)
	require.Equal(uint64(11), position)
	require.Equal(uint64(100), header.Length)
	require.Equal(uint64(111), s.Size())

	b, err := s.Read(position, header)
	require.NoError(err)
	require.Equal(bytes.Repeat([]byte{9}, 100), b)
}

func TestStoreRollback(t *testing.T) {
	require := require.New(t)
	s := New(storage.NewMemory())

	_, _, err := s.Append(storage.Slices([]byte("kept")), maybe.Nothing[uint64]())
	require.NoError(err)

	_, _, err = s.Append(storage.Slices([]byte("abc"), []byte("def")), maybe.Some[uint64](5))
	require.ErrorIs(err, storage.ErrUnexpectedStreamLength)
	require.Equal(uint64(4), s.Size())
}

func TestStoreDetectsCorruption(t *testing.T) {
	require := require.New(t)
	m := storage.NewMemory()
	s := New(m)

	position, header, err := s.Append(storage.Slices([]byte("payload")), maybe.Nothing[uint64]())
	require.NoError(err)

	require.NoError(m.Overwrite(position+3, []byte{'X'}))
	_, err = s.Read(position, header)
	require.ErrorIs(err, ErrRecordHeaderMismatch)

	// A header describing a different length is also a mismatch.
	require.NoError(m.Overwrite(position+3, []byte{'l'}))
	_, err = s.Read(position, Header{Checksum: header.Checksum, Length: 6})
	require.ErrorIs(err, ErrRecordHeaderMismatch)

	b, err := s.Read(position, header)
	require.NoError(err)
	require.Equal([]byte("payload"), b)
}
