// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"fmt"
	"os"
	"sync"

	"github.com/ava-labs/avalanchego/utils/perms"
)

var _ Storage = (*File)(nil)

// File is a Storage backed by a file on disk.
//
// Appends are buffered in memory until [bufferSize] bytes are pending (or
// Sync is called). Reads that cover buffered bytes fail with ErrNotFlushed
// rather than returning data that is not yet on disk.
type File struct {
	path       string
	bufferSize int

	// lock guards the fields below so reads may run concurrently with
	// each other while appends and truncations are exclusive.
	lock    sync.RWMutex
	f       *os.File
	pending []byte
	flushed uint64
	closed  bool
}

// OpenFile opens (or creates) the file at [path]. A [bufferSize] of 0 writes
// every append straight through to the file.
func OpenFile(path string, bufferSize int) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, perms.ReadWrite)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: unable to stat %s", err, path)
	}
	return &File{
		path:       path,
		bufferSize: bufferSize,
		f:          f,
		pending:    make([]byte, 0, bufferSize),
		flushed:    uint64(fi.Size()),
	}, nil
}

func (f *File) Path() string {
	return f.path
}

func (f *File) AppendSlice(b []byte) (uint64, uint64, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.closed {
		return 0, 0, ErrClosed
	}
	position := f.size()
	if len(f.pending)+len(b) > f.bufferSize {
		if err := f.flush(); err != nil {
			return 0, 0, err
		}
	}
	if len(b) >= f.bufferSize {
		n, err := f.f.WriteAt(b, int64(f.flushed))
		f.flushed += uint64(n)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: unable to write %s", err, f.path)
		}
		return position, uint64(n), nil
	}
	f.pending = append(f.pending, b...)
	return position, uint64(len(b)), nil
}

func (f *File) Read(position uint64, size uint64) ([]byte, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	if f.closed {
		return nil, ErrClosed
	}
	end := position + size
	if end < position || end > f.size() {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrReadOutOfBounds, position, end, f.size())
	}
	if end > f.flushed {
		return nil, fmt.Errorf("%w: [%d, %d) with %d flushed", ErrNotFlushed, position, end, f.flushed)
	}
	b := make([]byte, size)
	if _, err := f.f.ReadAt(b, int64(position)); err != nil {
		return nil, fmt.Errorf("%w: unable to read %s", err, f.path)
	}
	return b, nil
}

func (f *File) Truncate(mark uint64) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.closed {
		return ErrClosed
	}
	if mark > f.size() {
		return fmt.Errorf("%w: %d > %d", ErrTruncateOutOfBounds, mark, f.size())
	}
	if mark >= f.flushed {
		f.pending = f.pending[:mark-f.flushed]
		return nil
	}
	f.pending = f.pending[:0]
	if err := f.f.Truncate(int64(mark)); err != nil {
		return fmt.Errorf("%w: unable to truncate %s", err, f.path)
	}
	f.flushed = mark
	return nil
}

func (f *File) Size() uint64 {
	f.lock.RLock()
	defer f.lock.RUnlock()

	return f.size()
}

// Sync writes any buffered bytes and fsyncs the file.
func (f *File) Sync() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.closed {
		return ErrClosed
	}
	if err := f.flush(); err != nil {
		return err
	}
	return f.f.Sync()
}

func (f *File) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	if err := f.flush(); err != nil {
		_ = f.f.Close()
		return err
	}
	if err := f.f.Sync(); err != nil {
		_ = f.f.Close()
		return fmt.Errorf("%w: unable to sync %s", err, f.path)
	}
	return f.f.Close()
}

func (f *File) Remove() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if !f.closed {
		f.closed = true
		f.pending = nil
		if err := f.f.Close(); err != nil {
			return err
		}
	}
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: unable to remove %s", err, f.path)
	}
	return nil
}

// Assumes [f.lock] is held
func (f *File) size() uint64 {
	return f.flushed + uint64(len(f.pending))
}

// Assumes [f.lock] is held
func (f *File) flush() error {
	if len(f.pending) == 0 {
		return nil
	}
	n, err := f.f.WriteAt(f.pending, int64(f.flushed))
	f.flushed += uint64(n)
	if err != nil {
		f.pending = f.pending[:copy(f.pending, f.pending[n:])]
		return fmt.Errorf("%w: unable to flush %s", err, f.path)
	}
	f.pending = f.pending[:0]
	return nil
}
