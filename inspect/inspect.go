// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package inspect verifies segments on disk without opening a log. Files are
// mapped read-only, so a segment can be inspected while another process
// holds the directory lock.
package inspect

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/wrappers"
	"golang.org/x/exp/mmap"

	"github.com/ava-labs/seglog/index"
	"github.com/ava-labs/seglog/segment"
	"github.com/ava-labs/seglog/storage"
	"github.com/ava-labs/seglog/store"
)

var ErrStoreTooShort = errors.New("store ends before referenced record")

// Summary describes a verified segment.
type Summary struct {
	BaseIndex    uint64
	HighestIndex uint64
	StoreSize    uint64
	// Unreferenced is the number of trailing store bytes no index record
	// points at.
	Unreferenced uint64
}

// Segment verifies every record of the segment starting at [base] in [dir]
// and calls [fn] with each one in order. A nil [fn] only verifies.
func Segment(dir string, base uint64, fn func(idx uint64, r segment.Record) error) (Summary, error) {
	indexReader, err := mmap.Open(storage.SegmentPath(dir, base, storage.IndexSuffix))
	if err != nil {
		return Summary{}, err
	}
	storeReader, err := mmap.Open(storage.SegmentPath(dir, base, storage.StoreSuffix))
	if err != nil {
		_ = indexReader.Close()
		return Summary{}, err
	}
	summary, err := verify(indexReader, storeReader, base, fn)
	errs := wrappers.Errs{}
	errs.Add(err, indexReader.Close(), storeReader.Close())
	return summary, errs.Err
}

func verify(indexReader, storeReader *mmap.ReaderAt, base uint64, fn func(uint64, segment.Record) error) (Summary, error) {
	summary := Summary{
		BaseIndex:    base,
		HighestIndex: base,
		StoreSize:    uint64(storeReader.Len()),
	}
	indexSize := uint64(indexReader.Len())
	if indexSize == 0 {
		summary.Unreferenced = summary.StoreSize
		return summary, nil
	}
	if indexSize < index.MarkerSize || (indexSize-index.MarkerSize)%index.RecordSize != 0 {
		return summary, fmt.Errorf("%w: %d bytes", index.ErrInconsistentIndexSize, indexSize)
	}

	buf := make([]byte, index.MarkerSize)
	if _, err := indexReader.ReadAt(buf, 0); err != nil {
		return summary, err
	}
	stored, err := index.DecodeMarker(buf)
	if err != nil {
		return summary, err
	}
	if stored != base {
		return summary, fmt.Errorf("%w: file %d holds base %d", index.ErrBaseIndexMismatch, base, stored)
	}

	var (
		count = (indexSize - index.MarkerSize) / index.RecordSize
		end   uint64
	)
	for n := uint64(0); n < count; n++ {
		idx := base + n
		if _, err := indexReader.ReadAt(buf, int64(index.RecordOffset(n))); err != nil {
			return summary, err
		}
		r, err := index.DecodeRecord(buf)
		if err != nil {
			return summary, err
		}
		if r.End() > summary.StoreSize {
			return summary, fmt.Errorf("%w: record %d ends at %d of %d", ErrStoreTooShort, idx, r.End(), summary.StoreSize)
		}
		payload := make([]byte, r.Length)
		if _, err := storeReader.ReadAt(payload, int64(r.Position)); err != nil {
			return summary, err
		}
		expected := store.Header{Checksum: r.Checksum, Length: uint64(r.Length)}
		if computed := store.ComputeHeader(payload); computed != expected {
			return summary, fmt.Errorf("%w: record %d", store.ErrRecordHeaderMismatch, idx)
		}
		record, err := segment.ParseRecord(payload)
		if err != nil {
			return summary, fmt.Errorf("record %d: %w", idx, err)
		}
		if !record.Metadata.Index.HasValue() || record.Index() != idx {
			return summary, fmt.Errorf("%w: record %d claims index %d", segment.ErrIndexMismatch, idx, record.Index())
		}
		if fn != nil {
			if err := fn(idx, record); err != nil {
				return summary, err
			}
		}
		summary.HighestIndex = idx + 1
		end = r.End()
	}
	summary.Unreferenced = summary.StoreSize - end
	return summary, nil
}
