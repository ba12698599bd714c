// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/ava-labs/avalanchego/utils/perms"
	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/gofrs/flock"
)

const lockFileName = "LOCK"

var _ Provider = (*DiskProvider)(nil)

// DiskProvider stores each segment as two files in a single directory:
// <base_index>.index and <base_index>.store.
//
// The directory is locked for the lifetime of the provider so two processes
// never append to the same segments.
type DiskProvider struct {
	dir        string
	bufferSize int
	lock       *flock.Flock
}

// NewDiskProvider creates [dir] if needed and takes an exclusive lock on it.
// Files are opened with a write buffer of [bufferSize] bytes.
func NewDiskProvider(dir string, bufferSize int) (*DiskProvider, error) {
	if err := os.MkdirAll(dir, perms.ReadWriteExecute); err != nil {
		return nil, fmt.Errorf("%w: unable to create %s", err, dir)
	}
	lock := flock.New(filepath.Join(dir, lockFileName))
	held, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to lock %s", err, dir)
	}
	if !held {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryLocked, dir)
	}
	return &DiskProvider{
		dir:        dir,
		bufferSize: bufferSize,
		lock:       lock,
	}, nil
}

func (p *DiskProvider) Dir() string {
	return p.dir
}

func (p *DiskProvider) BaseIndices() ([]uint64, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, err
	}
	bases := set.Set[uint64]{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		var stem string
		switch {
		case strings.HasSuffix(name, IndexSuffix):
			stem = strings.TrimSuffix(name, IndexSuffix)
		case strings.HasSuffix(name, StoreSuffix):
			stem = strings.TrimSuffix(name, StoreSuffix)
		default:
			continue
		}
		base, err := strconv.ParseUint(stem, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: unexpected segment file %s", err, name)
		}
		bases.Add(base)
	}
	sorted := bases.List()
	slices.Sort(sorted)
	return sorted, nil
}

func (p *DiskProvider) Obtain(baseIndex uint64) (SegmentStorage, error) {
	index, err := OpenFile(SegmentPath(p.dir, baseIndex, IndexSuffix), p.bufferSize)
	if err != nil {
		return SegmentStorage{}, err
	}
	store, err := OpenFile(SegmentPath(p.dir, baseIndex, StoreSuffix), p.bufferSize)
	if err != nil {
		_ = index.Close()
		return SegmentStorage{}, err
	}
	return SegmentStorage{Index: index, Store: store}, nil
}

// Close releases the directory lock. Storages handed out earlier must be
// closed by their owners.
func (p *DiskProvider) Close() error {
	return p.lock.Unlock()
}

// SegmentPath is the path of the file of kind [suffix] for the segment
// starting at [baseIndex].
func SegmentPath(dir string, baseIndex uint64, suffix string) string {
	return filepath.Join(dir, strconv.FormatUint(baseIndex, 10)+suffix)
}
