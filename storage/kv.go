// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/seglog/consts"
)

var _ Storage = (*KV)(nil)

const (
	metaPrefix byte = 'm'
	pagePrefix byte = 'p'

	// DefaultPageSize is the page size used by KVProvider when none is
	// given.
	DefaultPageSize = 4 * 1024
)

// KV stores a byte sequence as fixed-size pages in a key-value database.
//
// Keys are laid out as:
//
//	[metaPrefix][name] -> size (uint64)
//	[pagePrefix][name][page number (uint64)] -> page bytes
//
// Only the last page may be partially filled.
type KV struct {
	db       database.Database
	name     []byte
	pageSize uint64

	lock   sync.RWMutex
	size   uint64
	tail   []byte // contents of the last, partially filled page
	closed bool
}

// OpenKV opens the sequence called [name] in [db].
func OpenKV(db database.Database, name []byte, pageSize int) (*KV, error) {
	if pageSize <= 0 {
		return nil, ErrInvalidPageSize
	}
	kv := &KV{
		db:       db,
		name:     name,
		pageSize: uint64(pageSize),
	}
	raw, err := db.Get(kv.metaKey())
	switch {
	case errors.Is(err, database.ErrNotFound):
		// Persist the empty sequence so it can be enumerated.
		if err := db.Put(kv.metaKey(), binary.BigEndian.AppendUint64(nil, 0)); err != nil {
			return nil, err
		}
		return kv, nil
	case err != nil:
		return nil, err
	case len(raw) != consts.Uint64Len:
		return nil, fmt.Errorf("%w: %x", ErrInvalidSizeEntry, name)
	}
	kv.size = binary.BigEndian.Uint64(raw)
	if off := kv.size % kv.pageSize; off > 0 {
		page, err := db.Get(kv.pageKey(kv.size / kv.pageSize))
		if err != nil {
			return nil, fmt.Errorf("%w: unable to load tail page of %x", err, name)
		}
		kv.tail = page[:off]
	}
	return kv, nil
}

func (kv *KV) AppendSlice(b []byte) (uint64, uint64, error) {
	kv.lock.Lock()
	defer kv.lock.Unlock()

	if kv.closed {
		return 0, 0, ErrClosed
	}
	var (
		position = kv.size
		cursor   = kv.size
		tail     = kv.tail
		rest     = b
		batch    = kv.db.NewBatch()
	)
	for len(rest) > 0 {
		room := kv.pageSize - uint64(len(tail))
		take := min(room, uint64(len(rest)))
		page := make([]byte, 0, uint64(len(tail))+take)
		page = append(page, tail...)
		page = append(page, rest[:take]...)
		if err := batch.Put(kv.pageKey(cursor/kv.pageSize), page); err != nil {
			return 0, 0, err
		}
		cursor += take
		rest = rest[take:]
		tail = page
		if uint64(len(tail)) == kv.pageSize {
			tail = nil
		}
	}
	if err := batch.Put(kv.metaKey(), binary.BigEndian.AppendUint64(nil, cursor)); err != nil {
		return 0, 0, err
	}
	if err := batch.Write(); err != nil {
		return 0, 0, err
	}
	kv.size = cursor
	kv.tail = tail
	return position, uint64(len(b)), nil
}

func (kv *KV) Read(position uint64, size uint64) ([]byte, error) {
	kv.lock.RLock()
	defer kv.lock.RUnlock()

	if kv.closed {
		return nil, ErrClosed
	}
	end := position + size
	if end < position || end > kv.size {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrReadOutOfBounds, position, end, kv.size)
	}
	out := make([]byte, 0, size)
	for cursor := position; cursor < end; {
		page, err := kv.db.Get(kv.pageKey(cursor / kv.pageSize))
		if err != nil {
			return nil, fmt.Errorf("%w: unable to read page %d", err, cursor/kv.pageSize)
		}
		off := cursor % kv.pageSize
		take := min(uint64(len(page))-off, end-cursor)
		out = append(out, page[off:off+take]...)
		cursor += take
	}
	return out, nil
}

func (kv *KV) Truncate(mark uint64) error {
	kv.lock.Lock()
	defer kv.lock.Unlock()

	if kv.closed {
		return ErrClosed
	}
	if mark > kv.size {
		return fmt.Errorf("%w: %d > %d", ErrTruncateOutOfBounds, mark, kv.size)
	}
	batch := kv.db.NewBatch()
	if err := kv.deletePages(batch, mark, kv.size); err != nil {
		return err
	}
	var tail []byte
	if off := mark % kv.pageSize; off > 0 {
		page, err := kv.db.Get(kv.pageKey(mark / kv.pageSize))
		if err != nil {
			return err
		}
		tail = page[:off]
		if err := batch.Put(kv.pageKey(mark/kv.pageSize), tail); err != nil {
			return err
		}
	}
	if err := batch.Put(kv.metaKey(), binary.BigEndian.AppendUint64(nil, mark)); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	kv.size = mark
	kv.tail = tail
	return nil
}

func (kv *KV) Size() uint64 {
	kv.lock.RLock()
	defer kv.lock.RUnlock()

	return kv.size
}

// Close does not close the underlying database, which is shared.
func (kv *KV) Close() error {
	kv.lock.Lock()
	defer kv.lock.Unlock()

	kv.closed = true
	return nil
}

func (kv *KV) Remove() error {
	kv.lock.Lock()
	defer kv.lock.Unlock()

	kv.closed = true
	batch := kv.db.NewBatch()
	if err := kv.deletePages(batch, 0, kv.size); err != nil {
		return err
	}
	if err := batch.Delete(kv.metaKey()); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	kv.size = 0
	kv.tail = nil
	return nil
}

// deletePages deletes every page that only holds bytes in [from, to).
func (kv *KV) deletePages(batch database.Batch, from uint64, to uint64) error {
	first := (from + kv.pageSize - 1) / kv.pageSize
	last := (to + kv.pageSize - 1) / kv.pageSize
	for page := first; page < last; page++ {
		if err := batch.Delete(kv.pageKey(page)); err != nil {
			return err
		}
	}
	return nil
}

func (kv *KV) metaKey() []byte {
	k := make([]byte, 0, 1+len(kv.name))
	k = append(k, metaPrefix)
	return append(k, kv.name...)
}

func (kv *KV) pageKey(page uint64) []byte {
	k := make([]byte, 0, 1+len(kv.name)+consts.Uint64Len)
	k = append(k, pagePrefix)
	k = append(k, kv.name...)
	return binary.BigEndian.AppendUint64(k, page)
}
