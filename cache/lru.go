// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

var _ Policy[int] = (*LRU[int])(nil)

// LRU evicts the least recently accessed key.
type LRU[K comparable] struct {
	*bounded[K]
}

func NewLRU[K comparable](limit int) (*LRU[K], error) {
	b, err := newBounded[K](limit)
	if err != nil {
		return nil, err
	}
	return &LRU[K]{bounded: b}, nil
}

func (l *LRU[K]) Query(key K, touch bool) bool {
	if touch {
		_, ok := l.l.Get(key)
		return ok
	}
	return l.l.Contains(key)
}

func (l *LRU[K]) Insert(key K) (K, bool) {
	if l.Query(key, true) {
		return *new(K), false
	}
	return l.add(key)
}
