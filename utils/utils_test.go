// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		size     uint64
		expected string
	}{
		{size: 0, expected: "0B"},
		{size: 1023, expected: "1023B"},
		{size: 1024, expected: "1.0KiB"},
		{size: 1536, expected: "1.5KiB"},
		{size: 4 << 30, expected: "4.0GiB"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, FormatBytes(tt.size))
		})
	}
}

func TestFoutf(t *testing.T) {
	require := require.New(t)
	var b bytes.Buffer
	Foutf(&b, "{{green}}%d{{/}}", 7)
	require.Contains(b.String(), "7")
}
