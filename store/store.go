// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store appends raw record payloads to a storage.Storage and
// verifies them on read. Checksums are never persisted here: the caller
// keeps the Header (typically in an index) and hands it back on read.
package store

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/maybe"
	"github.com/cespare/xxhash/v2"

	"github.com/ava-labs/seglog/storage"
)

// Header describes a payload written to a Store.
type Header struct {
	Checksum uint64
	Length   uint64
}

// ComputeHeader returns the Header of [b].
func ComputeHeader(b []byte) Header {
	return Header{
		Checksum: xxhash.Sum64(b),
		Length:   uint64(len(b)),
	}
}

type Store struct {
	s storage.Storage
}

func New(s storage.Storage) *Store {
	return &Store{s: s}
}

// hashingStream feeds every chunk it yields into a running digest.
type hashingStream struct {
	inner  storage.Stream
	digest *xxhash.Digest
}

func (h *hashingStream) Next() ([]byte, error) {
	chunk, err := h.inner.Next()
	if err != nil {
		return nil, err
	}
	_, _ = h.digest.Write(chunk)
	return chunk, nil
}

// Append writes every chunk of [stream] and returns the position of the
// payload and its Header. On failure nothing is left behind (see
// storage.Append).
func (s *Store) Append(stream storage.Stream, threshold maybe.Maybe[uint64]) (uint64, Header, error) {
	hs := &hashingStream{
		inner:  stream,
		digest: xxhash.New(),
	}
	position, written, err := storage.Append(s.s, hs, threshold)
	if err != nil {
		return 0, Header{}, err
	}
	return position, Header{
		Checksum: hs.digest.Sum64(),
		Length:   written,
	}, nil
}

// Read returns the payload at [position] described by [header].
func (s *Store) Read(position uint64, header Header) ([]byte, error) {
	b, err := s.s.Read(position, header.Length)
	if err != nil {
		return nil, err
	}
	if computed := ComputeHeader(b); computed != header {
		return nil, fmt.Errorf(
			"%w: at %d expected (%x, %d) found (%x, %d)",
			ErrRecordHeaderMismatch,
			position,
			header.Checksum,
			header.Length,
			computed.Checksum,
			computed.Length,
		)
	}
	return b, nil
}

func (s *Store) Truncate(mark uint64) error {
	return s.s.Truncate(mark)
}

func (s *Store) Size() uint64 {
	return s.s.Size()
}

func (s *Store) Close() error {
	return s.s.Close()
}

func (s *Store) Remove() error {
	return s.s.Remove()
}
