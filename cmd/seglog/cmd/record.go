// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/ava-labs/avalanchego/utils/maybe"
	"github.com/ava-labs/avalanchego/utils/units"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ava-labs/seglog/segment"
	"github.com/ava-labs/seglog/storage"
	"github.com/ava-labs/seglog/utils"
)

const (
	chunkSize = 64 * units.KiB

	// unsetIndex leaves the index to be assigned by the log.
	unsetIndex = -1
)

var ErrNegativeIndex = errors.New("index must not be negative")

func (s *Seglog) newAppendCmd() *cobra.Command {
	var (
		attributes string
		index      int64
	)
	cmd := &cobra.Command{
		Use:     "append [file]",
		Short:   "Append a record read from a file or stdin",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: s.open,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			metadata := segment.Metadata{Attributes: []byte(attributes)}
			switch {
			case index >= 0:
				metadata.Index = maybe.Some(uint64(index))
			case index != unsetIndex:
				return fmt.Errorf("%w: %d", ErrNegativeIndex, index)
			}
			idx, err := s.seglog.Append(metadata, storage.Reader(in, chunkSize))
			if err != nil {
				return err
			}
			if err := s.seglog.Flush(); err != nil {
				return err
			}
			s.log.Debug("appended record", zap.Uint64("index", idx))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), idx)
			return err
		},
	}
	cmd.Flags().StringVar(&attributes, "attr", "", "attributes stored with the record")
	cmd.Flags().Int64Var(&index, "index", unsetIndex, "expected index of the record")
	return cmd
}

func (s *Seglog) newReadCmd() *cobra.Command {
	var metadata bool
	cmd := &cobra.Command{
		Use:     "read <index>",
		Short:   "Write the value of a record to stdout",
		Args:    cobra.ExactArgs(1),
		PreRunE: s.open,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			r, err := s.seglog.Read(cmd.Context(), idx)
			if err != nil {
				return err
			}
			if metadata {
				utils.Outf("{{yellow}}index:{{/}} %d {{yellow}}attributes:{{/}} %q {{yellow}}size:{{/}} %s\n",
					r.Index(), r.Metadata.Attributes, utils.FormatBytes(uint64(len(r.Value))))
			}
			_, err = cmd.OutOrStdout().Write(r.Value)
			return err
		},
	}
	cmd.Flags().BoolVar(&metadata, "metadata", false, "print the record metadata before the value")
	return cmd
}

func (s *Seglog) newDumpCmd() *cobra.Command {
	var from int64
	cmd := &cobra.Command{
		Use:     "dump",
		Short:   "List every record from an index onwards",
		Args:    cobra.NoArgs,
		PreRunE: s.open,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := s.seglog.LowestIndex()
			if from >= 0 {
				start = uint64(from)
			}
			out := cmd.OutOrStdout()
			return s.seglog.Scan(cmd.Context(), start, func(idx uint64, r segment.Record) error {
				_, err := fmt.Fprintf(out, "%d\t%d\t%q\n", idx, len(r.Value), r.Metadata.Attributes)
				return err
			})
		},
	}
	cmd.Flags().Int64Var(&from, "from", -1, "first index to list (defaults to the lowest)")
	return cmd
}
