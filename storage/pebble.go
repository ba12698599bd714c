// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"fmt"

	"github.com/ava-labs/avalanchego/database/pebbledb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// NewPebbleProvider keeps every segment in a pebble database stored in
// [dir]. Closing the provider closes the database.
func NewPebbleProvider(
	dir string,
	pageSize int,
	log logging.Logger,
	registerer prometheus.Registerer,
) (*KVProvider, error) {
	db, err := pebbledb.New(dir, nil, log, registerer)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to open pebble database in %s", err, dir)
	}
	return NewKVProvider(db, pageSize), nil
}
