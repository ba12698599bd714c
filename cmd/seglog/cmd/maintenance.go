// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ava-labs/seglog/inspect"
	"github.com/ava-labs/seglog/segment"
	"github.com/ava-labs/seglog/storage"
	"github.com/ava-labs/seglog/utils"
)

func (s *Seglog) newTruncateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "truncate <index>",
		Short:   "Remove every record at or after an index",
		Args:    cobra.ExactArgs(1),
		PreRunE: s.open,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			if err := s.seglog.Truncate(idx); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s.seglog.HighestIndex())
			return err
		},
	}
}

func (s *Seglog) newExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "expire <age>",
		Short:   "Remove read segments older than a duration (e.g. 72h)",
		Args:    cobra.ExactArgs(1),
		PreRunE: s.open,
		RunE: func(cmd *cobra.Command, args []string) error {
			age, err := time.ParseDuration(args[0])
			if err != nil {
				return err
			}
			removed, err := s.seglog.RemoveExpired(age)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), removed)
			return err
		},
	}
}

func (s *Seglog) newBoundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "bounds",
		Short:   "Print the index range and every segment",
		Args:    cobra.NoArgs,
		PreRunE: s.open,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "%d\t%d\n", s.seglog.LowestIndex(), s.seglog.HighestIndex()); err != nil {
				return err
			}
			for _, info := range s.seglog.Segments() {
				utils.Outf("{{cyan}}segment %d{{/}} [%d, %d) store=%s index=%s cached=%t created=%s\n",
					info.BaseIndex, info.BaseIndex, info.HighestIndex,
					utils.FormatBytes(info.StoreSize), utils.FormatBytes(info.IndexSize),
					info.IndexCached, info.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

// newVerifyCmd checks the files of every segment directly, after flushing
// the write segment. Other backends are verified by reading every record
// back through the log.
func (s *Seglog) newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "verify",
		Short:   "Verify the checksum of every record",
		Args:    cobra.NoArgs,
		PreRunE: s.open,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.seglog.Flush(); err != nil {
				return err
			}
			disk, ok := s.provider.(*storage.DiskProvider)
			if !ok {
				return s.verifyRecords(cmd)
			}
			out := cmd.OutOrStdout()
			segments := s.seglog.Segments()
			for _, info := range segments {
				summary, err := inspect.Segment(disk.Dir(), info.BaseIndex, nil)
				if err != nil {
					return fmt.Errorf("%w: segment %d", err, info.BaseIndex)
				}
				if _, err := fmt.Fprintf(out, "%d\t%d\t%d\n", summary.BaseIndex, summary.HighestIndex, summary.Unreferenced); err != nil {
					return err
				}
			}
			utils.Outf("{{green}}verified %d segments{{/}}\n", len(segments))
			return nil
		},
	}
}

func (s *Seglog) verifyRecords(cmd *cobra.Command) error {
	err := s.seglog.Scan(cmd.Context(), s.seglog.LowestIndex(), func(uint64, segment.Record) error {
		return nil
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	segments := s.seglog.Segments()
	for _, info := range segments {
		if _, err := fmt.Fprintf(out, "%d\t%d\t%d\n", info.BaseIndex, info.HighestIndex, 0); err != nil {
			return err
		}
	}
	utils.Outf("{{green}}verified %d segments{{/}}\n", len(segments))
	return nil
}
