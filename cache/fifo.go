// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

var _ Policy[int] = (*FIFO[int])(nil)

// FIFO evicts the key that was inserted first. Accesses never change the
// eviction order.
type FIFO[K comparable] struct {
	*bounded[K]
}

func NewFIFO[K comparable](limit int) (*FIFO[K], error) {
	b, err := newBounded[K](limit)
	if err != nil {
		return nil, err
	}
	return &FIFO[K]{bounded: b}, nil
}

func (f *FIFO[K]) Query(key K, _ bool) bool {
	return f.l.Contains(key)
}

func (f *FIFO[K]) Insert(key K) (K, bool) {
	if f.l.Contains(key) {
		return *new(K), false
	}
	return f.add(key)
}
