// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cache provides bounded eviction policies.
package cache

import (
	"errors"

	"github.com/ava-labs/avalanchego/utils/maybe"
	"github.com/hashicorp/golang-lru/simplelru"
)

var ErrInvalidSize = errors.New("maxSize must be greater than 0")

// Policy tracks a bounded set of keys and decides which key to give up
// when a new one does not fit.
type Policy[K comparable] interface {
	// Query returns true if [key] is tracked. If [touch] is true, the
	// policy may treat the query as an access.
	Query(key K, touch bool) bool

	// Insert tracks [key] and returns the key evicted to make room for it,
	// if any. Inserting a tracked key never evicts.
	Insert(key K) (evicted K, ok bool)

	// Remove stops tracking [key] without reporting an eviction.
	Remove(key K) bool

	Len() int
}

// bounded wraps a simplelru.LRU, recording the last key it evicted.
type bounded[K comparable] struct {
	l       *simplelru.LRU
	evicted maybe.Maybe[K]
}

func newBounded[K comparable](limit int) (*bounded[K], error) {
	if limit <= 0 {
		return nil, ErrInvalidSize
	}
	b := &bounded[K]{}
	l, err := simplelru.NewLRU(limit, func(key, _ interface{}) {
		b.evicted = maybe.Some(key.(K))
	})
	if err != nil {
		return nil, err
	}
	b.l = l
	return b, nil
}

// add tracks a new key, returning the key it displaced.
func (b *bounded[K]) add(key K) (K, bool) {
	b.evicted = maybe.Nothing[K]()
	b.l.Add(key, struct{}{})
	evicted := b.evicted
	b.evicted = maybe.Nothing[K]()
	return evicted.Value(), evicted.HasValue()
}

func (b *bounded[K]) Remove(key K) bool {
	present := b.l.Remove(key)
	b.evicted = maybe.Nothing[K]()
	return present
}

func (b *bounded[K]) Len() int {
	return b.l.Len()
}
