// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/maybe"
	"github.com/stretchr/testify/require"
)

var errBrokenChunk = errors.New("broken chunk")

type failingStream struct {
	chunks [][]byte
}

func (f *failingStream) Next() ([]byte, error) {
	if len(f.chunks) == 0 {
		return nil, errBrokenChunk
	}
	chunk := f.chunks[0]
	f.chunks = f.chunks[1:]
	return chunk, nil
}

func storages(t *testing.T) map[string]func() Storage {
	return map[string]func() Storage{
		"memory": func() Storage {
			return NewMemory()
		},
		"file": func() Storage {
			f, err := OpenFile(t.TempDir()+"/bytes", 0)
			require.NoError(t, err)
			return f
		},
		"buffered file": func() Storage {
			f, err := OpenFile(t.TempDir()+"/bytes", 64)
			require.NoError(t, err)
			return f
		},
		"kv": func() Storage {
			kv, err := OpenKV(memdb.New(), []byte("bytes"), 7)
			require.NoError(t, err)
			return kv
		},
	}
}

func TestStorageAppendReadTruncate(t *testing.T) {
	for name, open := range storages(t) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			s := open()

			pos, n, err := s.AppendSlice([]byte("hello"))
			require.NoError(err)
			require.Zero(pos)
			require.Equal(uint64(5), n)

			pos, n, err = s.AppendSlice([]byte(" world, this is a longer slice"))
			require.NoError(err)
			require.Equal(uint64(5), pos)
			require.Equal(uint64(30), n)
			require.Equal(uint64(35), s.Size())

			if f, ok := s.(*File); ok {
				require.NoError(f.Sync())
			}
			b, err := s.Read(0, 11)
			require.NoError(err)
			require.Equal([]byte("hello world"), b)

			_, err = s.Read(30, 10)
			require.ErrorIs(err, ErrReadOutOfBounds)

			require.NoError(s.Truncate(8))
			require.Equal(uint64(8), s.Size())
			_, err = s.Read(0, 9)
			require.ErrorIs(err, ErrReadOutOfBounds)
			require.ErrorIs(s.Truncate(9), ErrTruncateOutOfBounds)

			_, _, err = s.AppendSlice([]byte("!"))
			require.NoError(err)
			if f, ok := s.(*File); ok {
				require.NoError(f.Sync())
			}
			b, err = s.Read(0, 9)
			require.NoError(err)
			require.Equal([]byte("hello wo!"), b)

			require.NoError(s.Close())
			_, err = s.Read(0, 1)
			require.ErrorIs(err, ErrClosed)
		})
	}
}

func TestAppendStream(t *testing.T) {
	tests := []struct {
		name        string
		stream      func() Stream
		threshold   maybe.Maybe[uint64]
		expectedErr error
		written     uint64
	}{
		{
			name:      "no threshold",
			stream:    func() Stream { return Slices([]byte("abc"), []byte("defg")) },
			threshold: maybe.Nothing[uint64](),
			written:   7,
		},
		{
			name:      "exactly at threshold",
			stream:    func() Stream { return Slices([]byte("abc"), []byte("defg")) },
			threshold: maybe.Some[uint64](7),
			written:   7,
		},
		{
			name:        "over threshold",
			stream:      func() Stream { return Slices([]byte("abc"), []byte("defg")) },
			threshold:   maybe.Some[uint64](6),
			expectedErr: ErrUnexpectedStreamLength,
		},
		{
			name:        "failing chunk",
			stream:      func() Stream { return &failingStream{chunks: [][]byte{[]byte("abc")}} },
			threshold:   maybe.Nothing[uint64](),
			expectedErr: errBrokenChunk,
		},
	}
	for _, tt := range tests {
		for name, open := range storages(t) {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				require := require.New(t)
				s := open()

				_, _, err := s.AppendSlice([]byte("prefix"))
				require.NoError(err)
				before := s.Size()

				pos, written, err := Append(s, tt.stream(), tt.threshold)
				require.ErrorIs(err, tt.expectedErr)
				if tt.expectedErr != nil {
					require.Equal(before, s.Size())
					if f, ok := s.(*File); ok {
						require.NoError(f.Sync())
					}
					b, err := s.Read(0, before)
					require.NoError(err)
					require.Equal([]byte("prefix"), b)
					return
				}
				require.Equal(before, pos)
				require.Equal(tt.written, written)
				require.Equal(before+written, s.Size())
			})
		}
	}
}

func TestFailingChunkIsWrapped(t *testing.T) {
	require := require.New(t)

	_, _, err := Append(NewMemory(), &failingStream{}, maybe.Nothing[uint64]())
	require.ErrorIs(err, ErrStreamRead)
	require.ErrorIs(err, errBrokenChunk)
}

func TestStreams(t *testing.T) {
	require := require.New(t)

	payload := bytes.Repeat([]byte("0123456789"), 10)
	chunks := 0
	r := Reader(bytes.NewReader(payload), 16)
	for {
		chunk, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(err)
		require.LessOrEqual(len(chunk), 16)
		chunks++
	}
	require.Equal(7, chunks)

	all, err := ReadAll(Concat(
		Slices([]byte("a"), nil, []byte("b")),
		Slices(),
		Reader(bytes.NewReader([]byte("cde")), 0),
	))
	require.NoError(err)
	require.Equal([]byte("abcde"), all)
}
