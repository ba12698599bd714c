// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage defines the byte sequence abstraction that indexes and
// stores are written to, along with memory, file and key-value backed
// implementations.
package storage

import (
	"errors"
	"fmt"
	"io"

	"github.com/ava-labs/avalanchego/utils/maybe"
)

// Storage is an append-only, randomly readable byte sequence.
//
// Implementations are not required to be safe for concurrent mutation, but
// Read must be safe to call concurrently with other reads.
type Storage interface {
	// AppendSlice writes [b] at the end of the sequence and returns the
	// position it was written at and the number of bytes written.
	AppendSlice(b []byte) (position uint64, n uint64, err error)

	// Read returns exactly [size] bytes starting at [position]. It fails if
	// any of those bytes were never written (or are not yet readable).
	Read(position uint64, size uint64) ([]byte, error)

	// Truncate discards everything from [mark] onwards.
	Truncate(mark uint64) error

	// Size is the number of bytes appended and not truncated.
	Size() uint64

	// Close releases the handle without deleting the bytes.
	Close() error

	// Remove releases the handle and deletes the bytes.
	Remove() error
}

// Append writes every chunk of [stream] to [s].
//
// If [threshold] is set and the chunks would write more than that many bytes,
// or if reading a chunk or appending it fails, [s] is truncated back to the
// size it had before the call and an error is returned. A partially appended
// stream is therefore never left behind.
func Append(s Storage, stream Stream, threshold maybe.Maybe[uint64]) (uint64, uint64, error) {
	start := s.Size()
	written, err := appendChunks(s, stream, threshold)
	if err == nil {
		return start, written, nil
	}
	if terr := s.Truncate(start); terr != nil {
		err = errors.Join(err, fmt.Errorf("unable to roll back append at %d: %w", start, terr))
	}
	return 0, 0, err
}

func appendChunks(s Storage, stream Stream, threshold maybe.Maybe[uint64]) (uint64, error) {
	var written uint64
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrStreamRead, err)
		}
		if threshold.HasValue() && written+uint64(len(chunk)) > threshold.Value() {
			return 0, fmt.Errorf(
				"%w: %d bytes exceeds threshold of %d",
				ErrUnexpectedStreamLength,
				written+uint64(len(chunk)),
				threshold.Value(),
			)
		}
		_, n, err := s.AppendSlice(chunk)
		if err != nil {
			return 0, err
		}
		written += n
	}
}
