// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"errors"
	"io"
)

const DefaultChunkSize = 32 * 1024

// Stream yields a sequence of byte chunks. Next returns io.EOF once the
// stream is exhausted; any other error aborts the consumer.
//
// A returned chunk is only valid until the next call to Next.
type Stream interface {
	Next() ([]byte, error)
}

type sliceStream struct {
	chunks [][]byte
}

// Slices returns a Stream over in-memory chunks.
func Slices(chunks ...[]byte) Stream {
	return &sliceStream{chunks: chunks}
}

func (s *sliceStream) Next() ([]byte, error) {
	if len(s.chunks) == 0 {
		return nil, io.EOF
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}

type readerStream struct {
	r   io.Reader
	buf []byte
}

// Reader returns a Stream that reads [r] in chunks of at most [chunkSize]
// bytes. A non-positive [chunkSize] uses DefaultChunkSize.
func Reader(r io.Reader, chunkSize int) Stream {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &readerStream{r: r, buf: make([]byte, chunkSize)}
}

func (s *readerStream) Next() ([]byte, error) {
	for {
		n, err := s.r.Read(s.buf)
		if n > 0 {
			return s.buf[:n], nil
		}
		if err != nil {
			return nil, err
		}
	}
}

type concatStream struct {
	streams []Stream
}

// Concat returns a Stream yielding every chunk of [streams] in order.
func Concat(streams ...Stream) Stream {
	return &concatStream{streams: streams}
}

func (s *concatStream) Next() ([]byte, error) {
	for len(s.streams) > 0 {
		chunk, err := s.streams[0].Next()
		if errors.Is(err, io.EOF) {
			s.streams = s.streams[1:]
			continue
		}
		return chunk, err
	}
	return nil, io.EOF
}

// ReadAll drains [stream] into a single slice.
func ReadAll(stream Stream) ([]byte, error) {
	var out []byte
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
}
