// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"encoding/binary"
	"slices"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/set"

	"github.com/ava-labs/seglog/consts"
)

const (
	indexKind byte = 'i'
	storeKind byte = 's'
)

var _ Provider = (*KVProvider)(nil)

// KVProvider keeps every segment of a log inside one key-value database.
type KVProvider struct {
	db       database.Database
	pageSize int
}

// NewKVProvider returns a provider writing pages of [pageSize] bytes to
// [db]. A non-positive [pageSize] uses DefaultPageSize.
func NewKVProvider(db database.Database, pageSize int) *KVProvider {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &KVProvider{db: db, pageSize: pageSize}
}

func (p *KVProvider) BaseIndices() ([]uint64, error) {
	it := p.db.NewIteratorWithPrefix([]byte{metaPrefix})
	defer it.Release()

	bases := set.Set[uint64]{}
	for it.Next() {
		key := it.Key()
		if len(key) != 1+consts.Uint64Len+1 {
			continue
		}
		bases.Add(binary.BigEndian.Uint64(key[1 : 1+consts.Uint64Len]))
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	sorted := bases.List()
	slices.Sort(sorted)
	return sorted, nil
}

func (p *KVProvider) Obtain(baseIndex uint64) (SegmentStorage, error) {
	index, err := OpenKV(p.db, segmentName(baseIndex, indexKind), p.pageSize)
	if err != nil {
		return SegmentStorage{}, err
	}
	store, err := OpenKV(p.db, segmentName(baseIndex, storeKind), p.pageSize)
	if err != nil {
		return SegmentStorage{}, err
	}
	return SegmentStorage{Index: index, Store: store}, nil
}

// Close closes the underlying database.
func (p *KVProvider) Close() error {
	return p.db.Close()
}

func segmentName(baseIndex uint64, kind byte) []byte {
	name := make([]byte, 0, consts.Uint64Len+1)
	name = binary.BigEndian.AppendUint64(name, baseIndex)
	return append(name, kind)
}
