// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"fmt"
	"slices"
	"sync"
)

var _ Storage = (*Memory)(nil)

// buffer is the backing byte sequence shared by every handle opened on the
// same name.
type buffer struct {
	lock sync.RWMutex
	data []byte
}

// Memory is a Storage kept entirely in memory. It is mostly useful for
// tests.
type Memory struct {
	buf    *buffer
	closed bool

	onRemove func()
}

// NewMemory returns an empty Memory storage.
func NewMemory() *Memory {
	return &Memory{buf: &buffer{}}
}

func (m *Memory) AppendSlice(b []byte) (uint64, uint64, error) {
	if m.closed {
		return 0, 0, ErrClosed
	}
	m.buf.lock.Lock()
	defer m.buf.lock.Unlock()

	position := uint64(len(m.buf.data))
	m.buf.data = append(m.buf.data, b...)
	return position, uint64(len(b)), nil
}

func (m *Memory) Read(position uint64, size uint64) ([]byte, error) {
	if m.closed {
		return nil, ErrClosed
	}
	m.buf.lock.RLock()
	defer m.buf.lock.RUnlock()

	end := position + size
	if end < position || end > uint64(len(m.buf.data)) {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrReadOutOfBounds, position, end, len(m.buf.data))
	}
	return slices.Clone(m.buf.data[position:end]), nil
}

func (m *Memory) Truncate(mark uint64) error {
	if m.closed {
		return ErrClosed
	}
	m.buf.lock.Lock()
	defer m.buf.lock.Unlock()

	if mark > uint64(len(m.buf.data)) {
		return fmt.Errorf("%w: %d > %d", ErrTruncateOutOfBounds, mark, len(m.buf.data))
	}
	m.buf.data = m.buf.data[:mark]
	return nil
}

func (m *Memory) Size() uint64 {
	m.buf.lock.RLock()
	defer m.buf.lock.RUnlock()

	return uint64(len(m.buf.data))
}

func (m *Memory) Close() error {
	m.closed = true
	return nil
}

func (m *Memory) Remove() error {
	m.closed = true
	m.buf.lock.Lock()
	m.buf.data = nil
	m.buf.lock.Unlock()
	if m.onRemove != nil {
		m.onRemove()
	}
	return nil
}

// Overwrite replaces bytes in place, bypassing the append-only contract. It
// exists to simulate corruption.
func (m *Memory) Overwrite(position uint64, b []byte) error {
	m.buf.lock.Lock()
	defer m.buf.lock.Unlock()

	end := position + uint64(len(b))
	if end < position || end > uint64(len(m.buf.data)) {
		return fmt.Errorf("%w: [%d, %d) of %d", ErrReadOutOfBounds, position, end, len(m.buf.data))
	}
	copy(m.buf.data[position:end], b)
	return nil
}
