// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import "errors"

var ErrRecordHeaderMismatch = errors.New("record header mismatch")
