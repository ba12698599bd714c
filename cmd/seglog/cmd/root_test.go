// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/seglog/seglog"
)

func run(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	s := &Seglog{}
	args = append([]string{"--dir", dir, "--log-level", "off"}, args...)
	err := s.Execute(context.Background(), args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	for i, value := range []string{"alpha", "beta", "gamma"} {
		out, err := run(t, dir, value, "append", "--attr", "k"+value)
		require.NoError(err)
		require.Equal(strconv.Itoa(i)+"\n", out)
	}

	out, err := run(t, dir, "", "read", "1")
	require.NoError(err)
	require.Equal("beta", out)

	out, err = run(t, dir, "", "dump", "--from", "1")
	require.NoError(err)
	require.Equal("1\t4\t\"kbeta\"\n2\t5\t\"kgamma\"\n", out)

	out, err = run(t, dir, "", "truncate", "2")
	require.NoError(err)
	require.Equal("2\n", out)

	out, err = run(t, dir, "", "bounds")
	require.NoError(err)
	require.Equal("0\t2\n", out)

	out, err = run(t, dir, "", "verify")
	require.NoError(err)
	require.Equal("0\t2\t0\n", out)

	out, err = run(t, dir, "", "expire", "1h")
	require.NoError(err)
	require.Equal("0\n", out)

	_, err = run(t, dir, "", "read", "2")
	require.ErrorIs(err, seglog.ErrIndexOutOfBounds)
}

func TestAppendFromFile(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "value")
	require.NoError(os.WriteFile(path, []byte("from a file"), 0o600))

	out, err := run(t, dir, "", "append", "--index", "0", path)
	require.NoError(err)
	require.Equal("0\n", out)

	_, err = run(t, dir, "", "append", "--index", "5", path)
	require.Error(err)

	out, err = run(t, dir, "", "read", "0")
	require.NoError(err)
	require.Equal("from a file", out)
}

func TestConfigFile(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(os.WriteFile(path, []byte("cachePolicy: random\n"), 0o600))

	_, err := run(t, dir, "", "--config", path, "bounds")
	require.ErrorContains(err, "unknown cache policy")
}

func TestInvalidIndex(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "read", "x")
	require.Error(t, err)
}

func TestAppendRejectsNegativeIndex(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	_, err := run(t, dir, "value", "append", "--index=-2")
	require.ErrorIs(err, ErrNegativeIndex)

	out, err := run(t, dir, "", "bounds")
	require.NoError(err)
	require.Equal("0\t0\n", out)
}

func TestPebbleBackend(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(os.WriteFile(path, []byte("backend: pebble\npageSize: 4\n"), 0o600))

	for i, value := range []string{"first value", "second"} {
		out, err := run(t, dir, value, "--config", path, "append")
		require.NoError(err)
		require.Equal(strconv.Itoa(i)+"\n", out)
	}

	out, err := run(t, dir, "", "--config", path, "read", "0")
	require.NoError(err)
	require.Equal("first value", out)

	out, err = run(t, dir, "", "--config", path, "dump")
	require.NoError(err)
	require.Equal("0\t11\t\"\"\n1\t6\t\"\"\n", out)

	out, err = run(t, dir, "", "--config", path, "verify")
	require.NoError(err)
	require.Equal("0\t2\t0\n", out)
}
