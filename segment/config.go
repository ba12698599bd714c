// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package segment

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/units"

	"github.com/ava-labs/seglog/index"
)

// MaxAddressableStoreSize is the largest store a 32-bit record position
// can address.
const MaxAddressableStoreSize = 4 * units.GiB

type Config struct {
	// MaxStoreSize is the store size at which a segment is maxed.
	MaxStoreSize uint64 `yaml:"maxStoreSize"`
	// MaxStoreOverflow is how far past MaxStoreSize a single append may
	// write before it is rejected.
	MaxStoreOverflow uint64 `yaml:"maxStoreOverflow"`
	// MaxIndexSize is the index size at which a segment is maxed.
	MaxIndexSize uint64 `yaml:"maxIndexSize"`
}

func DefaultConfig() Config {
	return Config{
		MaxStoreSize:     1 * units.GiB,
		MaxStoreOverflow: 512 * units.MiB,
		MaxIndexSize:     16 * units.MiB,
	}
}

func (c Config) Verify() error {
	if c.MaxStoreSize == 0 {
		return ErrInvalidMaxStoreSize
	}
	if c.MaxIndexSize < index.MarkerSize+index.RecordSize {
		return fmt.Errorf("%w: %d", ErrInvalidMaxIndexSize, c.MaxIndexSize)
	}
	total := c.MaxStoreSize + c.MaxStoreOverflow
	if total < c.MaxStoreSize || total > MaxAddressableStoreSize {
		return fmt.Errorf("%w: %d+%d", ErrStoreExceedsPositions, c.MaxStoreSize, c.MaxStoreOverflow)
	}
	return nil
}
