// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package seglog

import (
	"github.com/ava-labs/avalanchego/utils/maybe"

	"github.com/ava-labs/seglog/cache"
	"github.com/ava-labs/seglog/segment"
)

const defaultCachedReadSegments = 8

type Config struct {
	Segment segment.Config

	// InitialIndex is the base index of the first segment of a new log.
	InitialIndex uint64

	// IndexCachedReadSegments bounds how many read segments keep their
	// index in memory. Nothing caches every read segment.
	IndexCachedReadSegments maybe.Maybe[int]

	// NewPolicy builds the eviction policy tracking cached read segments.
	NewPolicy func(limit int) (cache.Policy[uint64], error)
}

func DefaultConfig() Config {
	return Config{
		Segment:                 segment.DefaultConfig(),
		IndexCachedReadSegments: maybe.Some(defaultCachedReadSegments),
		NewPolicy:               NewLRUPolicy,
	}
}

func (c Config) Verify() error {
	if err := c.Segment.Verify(); err != nil {
		return err
	}
	if c.IndexCachedReadSegments.HasValue() {
		bound := c.IndexCachedReadSegments.Value()
		if bound < 0 {
			return ErrInvalidCacheBound
		}
		if bound > 0 && c.NewPolicy == nil {
			return ErrMissingPolicy
		}
	}
	return nil
}

func NewLRUPolicy(limit int) (cache.Policy[uint64], error) {
	return cache.NewLRU[uint64](limit)
}

func NewFIFOPolicy(limit int) (cache.Policy[uint64], error) {
	return cache.NewFIFO[uint64](limit)
}
